package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zulandar/marquee/internal/config"
	"github.com/zulandar/marquee/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the search history",
		Long:  "Works on the history file directly, outside any chat conversation.",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryMarkCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		configPath string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}
			records := store.QueryByDatePrefix(date)
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No history records found\n")
				return nil
			}
			for _, rec := range records {
				status := "not watched"
				if rec.Watched {
					status = "watched"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", rec.ID, rec.Date, rec.Title, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "marquee.yaml", "path to Marquee config file")
	cmd.Flags().StringVarP(&date, "date", "d", "", "filter by date prefix, e.g. 21-05-2024")
	return cmd
}

func newHistoryMarkCmd() *cobra.Command {
	var (
		configPath string
		notWatched bool
	)

	cmd := &cobra.Command{
		Use:   "mark <movie-id>",
		Short: "Mark a history record watched (or not watched with --not-watched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("history: invalid movie id %q", args[0])
			}
			store, err := openStore(configPath)
			if err != nil {
				return err
			}
			if err := store.MarkWatched(id, !notWatched); err != nil {
				return err
			}
			state := "watched"
			if notWatched {
				state = "not watched"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Movie %d marked %s\n", id, state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "marquee.yaml", "path to Marquee config file")
	cmd.Flags().BoolVar(&notWatched, "not-watched", false, "mark the record as not watched")
	return cmd
}

// openStore loads the config and opens the history store it points at.
func openStore(configPath string) (*history.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History.Path)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/marquee/internal/catalog"
	"github.com/zulandar/marquee/internal/chat"
	discordadapter "github.com/zulandar/marquee/internal/chat/discord"
	slackadapter "github.com/zulandar/marquee/internal/chat/slack"
	"github.com/zulandar/marquee/internal/config"
	"github.com/zulandar/marquee/internal/db"
	"github.com/zulandar/marquee/internal/history"
	"github.com/zulandar/marquee/internal/usher"
)

func newBotCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Start the Marquee chat bot",
		Long:  "Connects to the configured chat platform and serves movie searches until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "marquee.yaml", "path to Marquee config file")
	return cmd
}

func runBot(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Chat.Platform == "" {
		return fmt.Errorf("bot: no platform configured in %s (add chat.platform)", configPath)
	}

	client, err := catalog.NewClient(catalog.ClientOpts{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.ConvLog)
	if err != nil {
		return err
	}

	engine, err := usher.NewEngine(usher.EngineOpts{
		Searcher: client,
		History:  store,
		Poster:   usher.NewHTTPPosterChecker(),
		PageSize: cfg.Catalog.PageSize,
	})
	if err != nil {
		return err
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	daemon, err := usher.NewDaemon(usher.DaemonOpts{
		DB:      gormDB,
		Config:  cfg,
		Adapter: adapter,
		Engine:  engine,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (chat.Adapter, error) {
	switch cfg.Chat.Platform {
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Chat.Discord.BotToken,
			ChannelID: cfg.Chat.Discord.Channel,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Chat.Slack.AppToken,
			BotToken:  cfg.Chat.Slack.BotToken,
			ChannelID: cfg.Chat.Slack.Channel,
		})
	default:
		return nil, fmt.Errorf("bot: unsupported platform %q", cfg.Chat.Platform)
	}
}

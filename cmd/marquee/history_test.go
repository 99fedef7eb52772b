package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/marquee/internal/history"
)

// writeTestConfig writes a minimal config pointing the history store at a
// file inside dir, and returns the config path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "marquee.yaml")
	content := fmt.Sprintf(`catalog:
  base_url: https://catalog.example.com/v1.4/movie
  api_key: test-key
history:
  path: %s
`, filepath.Join(dir, "history.json"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func seedHistory(t *testing.T, configPath string, records ...history.Record) *history.Store {
	t.Helper()
	store, err := openStore(configPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, rec := range records {
		if err := store.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return store
}

func TestHistoryListCmd(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())
	seedHistory(t, configPath,
		history.Record{ID: 1, Date: "21-05-2024 10:00:00", Title: "Heat", Watched: true},
		history.Record{ID: 2, Date: "22-05-2024 10:00:00", Title: "Alien"},
	)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", "list", "-c", configPath, "-d", "21-05-2024"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history list failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Heat") || !strings.Contains(out, "watched") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "Alien") {
		t.Errorf("date filter leaked another day: %s", out)
	}
}

func TestHistoryListCmd_Empty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", "list", "-c", configPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No history records found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestHistoryMarkCmd(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())
	store := seedHistory(t, configPath,
		history.Record{ID: 42, Date: "21-05-2024 10:00:00", Title: "Heat"},
	)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", "mark", "42", "-c", configPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history mark failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Movie 42 marked watched") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	records := store.QueryByDatePrefix("21-05-2024")
	if len(records) != 1 || !records[0].Watched {
		t.Fatalf("record not marked: %+v", records)
	}

	// Undo with --not-watched.
	cmd = newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"history", "mark", "42", "-c", configPath, "--not-watched"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history mark --not-watched failed: %v", err)
	}
	if records := store.QueryByDatePrefix("21-05-2024"); records[0].Watched {
		t.Error("expected record marked not watched")
	}
}

func TestHistoryMarkCmd_BadID(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"history", "mark", "not-a-number", "-c", configPath})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

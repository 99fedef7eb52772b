package usher

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zulandar/marquee/internal/chat"
	"github.com/zulandar/marquee/internal/config"
	"github.com/zulandar/marquee/internal/db"
	"github.com/zulandar/marquee/internal/history"
	"github.com/zulandar/marquee/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Catalog.BaseURL = "https://catalog.example.com/v1.4/movie"
	cfg.Catalog.APIKey = "test-key"
	return cfg
}

func newTestDaemon(t *testing.T) (*Daemon, *chat.MockAdapter, *fakeSearcher) {
	t.Helper()
	searcher := &fakeSearcher{}
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	eng, err := NewEngine(EngineOpts{Searcher: searcher, History: store})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	adapter := chat.NewMockAdapter()
	adapter.SetBotUserID("B-bot")

	gormDB, err := db.Connect(config.ConvLogConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	daemon, err := NewDaemon(DaemonOpts{
		DB:      gormDB,
		Config:  testConfig(),
		Adapter: adapter,
		Engine:  eng,
		Out:     &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return daemon, adapter, searcher
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewDaemon_Validation(t *testing.T) {
	if _, err := NewDaemon(DaemonOpts{}); err == nil {
		t.Error("expected error without config")
	}
	if _, err := NewDaemon(DaemonOpts{Config: testConfig()}); err == nil {
		t.Error("expected error without adapter")
	}
	if _, err := NewDaemon(DaemonOpts{Config: testConfig(), Adapter: chat.NewMockAdapter()}); err == nil {
		t.Error("expected error without engine")
	}
}

func TestDaemon_HandlesInboundAndShutsDown(t *testing.T) {
	daemon, adapter, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()

	// The mock adapter buffers inbound events until the daemon listens.
	adapter.SimulateInbound(chat.InboundEvent{
		Conversation: "c1",
		UserName:     "alice",
		Kind:         chat.EventAction,
		Action:       chat.Action{Kind: chat.ActionRefresh},
	})

	waitFor(t, func() bool { return adapter.SentCount() >= 1 })
	last, _ := adapter.LastSent()
	if last.Text != msgNothingToRefresh {
		t.Errorf("unexpected reply: %+v", last)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not shut down")
	}
}

func TestDaemon_RecordsConversationTurns(t *testing.T) {
	daemon, adapter, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go daemon.Run(ctx)

	adapter.SimulateInbound(chat.InboundEvent{
		Conversation: "c1",
		UserName:     "alice",
		Kind:         chat.EventAction,
		Action:       chat.Action{Kind: chat.ActionSearchTitle},
	})
	waitFor(t, func() bool { return adapter.SentCount() >= 1 })

	var turns []models.ConversationTurn
	waitFor(t, func() bool {
		daemon.db.Order("sequence").Find(&turns, "conversation = ?", "c1")
		return len(turns) >= 2
	})
	if turns[0].Role != "user" || turns[0].Content != "movie_search" || turns[0].UserName != "alice" {
		t.Errorf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != "bot" || turns[1].Content != msgPromptTitle {
		t.Errorf("unexpected bot turn: %+v", turns[1])
	}
}

func TestDaemon_StopsWhenInboundCloses(t *testing.T) {
	daemon, adapter, _ := newTestDaemon(t)

	done := make(chan error, 1)
	go func() { done <- daemon.Run(context.Background()) }()

	// Prove the daemon is pumping events before closing the adapter.
	adapter.SimulateInbound(chat.InboundEvent{
		Conversation: "c1",
		Kind:         chat.EventAction,
		Action:       chat.Action{Kind: chat.ActionRefresh},
	})
	waitFor(t, func() bool { return adapter.SentCount() >= 1 })
	adapter.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after inbound closed")
	}
}

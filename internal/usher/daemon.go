package usher

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/zulandar/marquee/internal/chat"
	"github.com/zulandar/marquee/internal/config"
	"github.com/zulandar/marquee/internal/models"
	"gorm.io/gorm"
)

const (
	// sessionMaxIdle is how long a conversation may stay silent before its
	// dialog state is discarded.
	sessionMaxIdle = 24 * time.Hour
	evictInterval  = time.Hour

	// conversationQueueSize bounds each conversation's pending events. A slow
	// backend call delays that conversation only.
	conversationQueueSize = 16
)

// Daemon is the main bot process. It connects a chat adapter, pumps inbound
// events through the Engine one conversation at a time, records the exchange
// in the conversation log, and posts the scheduled digest.
type Daemon struct {
	db      *gorm.DB
	cfg     *config.Config
	adapter chat.Adapter
	engine  *Engine
	out     io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB // optional; nil disables the conversation log
	Config  *config.Config
	Adapter chat.Adapter
	Engine  *Engine
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("usher: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("usher: adapter is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("usher: engine is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.DB == nil {
		fmt.Fprintf(out, "usher: no database configured; conversation log disabled\n")
	}
	return &Daemon{
		db:      opts.DB,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		engine:  opts.Engine,
		out:     out,
	}, nil
}

// Run starts the daemon. It connects the adapter, starts the digest and
// eviction schedulers, and blocks pumping inbound events until the context
// is cancelled. On shutdown it drains per-conversation queues and closes the
// adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Marquee connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("usher: connect: %w", err)
	}

	if bui, ok := d.adapter.(chat.BotUserIDer); ok {
		log.Printf("usher: connected as bot user %s", bui.BotUserID())
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("usher: listen: %w", err)
	}

	go d.runDigestScheduler(ctx)
	go d.runEviction(ctx)

	fmt.Fprintf(d.out, "Marquee online\n")

	// Per-conversation queues serialize events within a conversation while
	// letting independent conversations proceed concurrently.
	queues := make(map[string]chan chat.InboundEvent)
	var wg sync.WaitGroup

	shutdown := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
		if err := d.adapter.Close(); err != nil {
			log.Printf("usher: close adapter: %v", err)
		}
		fmt.Fprintf(d.out, "Marquee stopped\n")
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Marquee shutting down...\n")
			shutdown()
			return nil

		case ev, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Marquee inbound channel closed\n")
				shutdown()
				return nil
			}
			q, exists := queues[ev.Conversation]
			if !exists {
				q = make(chan chat.InboundEvent, conversationQueueSize)
				queues[ev.Conversation] = q
				wg.Add(1)
				go d.conversationWorker(ctx, q, &wg)
			}
			select {
			case q <- ev:
			default:
				log.Printf("usher: conversation %s queue full, dropping event", ev.Conversation)
			}
		}
	}
}

// conversationWorker handles one conversation's events in arrival order.
func (d *Daemon) conversationWorker(ctx context.Context, queue <-chan chat.InboundEvent, wg *sync.WaitGroup) {
	defer wg.Done()
	for ev := range queue {
		d.handleEvent(ctx, ev)
	}
}

// handleEvent runs one event through the engine, sends the replies, and
// records both sides in the conversation log.
func (d *Daemon) handleEvent(ctx context.Context, ev chat.InboundEvent) {
	d.recordTurn(ev.Conversation, "user", ev.UserName, inboundContent(ev))

	replies := d.engine.Handle(ctx, ev)
	for _, reply := range replies {
		if err := d.adapter.Send(ctx, reply); err != nil {
			log.Printf("usher: send reply [conv=%s]: %v", ev.Conversation, err)
			continue
		}
		if reply.Text != "" {
			d.recordTurn(ev.Conversation, "bot", "", reply.Text)
		}
	}
}

// inboundContent renders an event for the conversation log.
func inboundContent(ev chat.InboundEvent) string {
	if ev.Kind == chat.EventAction {
		return ev.Action.Payload()
	}
	return ev.Text
}

// recordTurn appends one row to the conversation log (best-effort).
func (d *Daemon) recordTurn(conversation, role, userName, content string) {
	if d.db == nil {
		return
	}
	var maxSeq int
	d.db.Model(&models.ConversationTurn{}).
		Where("conversation = ?", conversation).
		Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq)

	turn := models.ConversationTurn{
		Conversation: conversation,
		Sequence:     maxSeq + 1,
		Role:         role,
		UserName:     userName,
		Content:      content,
	}
	if err := d.db.Create(&turn).Error; err != nil {
		log.Printf("usher: record turn [conv=%s]: %v", conversation, err)
	}
}

// runEviction periodically discards idle conversation state.
func (d *Daemon) runEviction(ctx context.Context) {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.engine.EvictIdle(sessionMaxIdle); n > 0 {
				log.Printf("usher: evicted %d idle session(s)", n)
			}
		}
	}
}

// runDigestScheduler posts the daily digest on the configured cron schedule.
// It returns immediately when the digest is disabled.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	digestCfg := d.cfg.Digest
	if !digestCfg.Enabled || digestCfg.Cron == "" {
		return
	}

	next := nextCronDuration(digestCfg.Cron)
	if next <= 0 {
		log.Printf("usher: invalid digest cron %q; digest disabled", digestCfg.Cron)
		return
	}
	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx)
			if next := nextCronDuration(digestCfg.Cron); next > 0 {
				timer.Reset(next)
			}
		}
	}
}

// fireDigest builds and posts one daily digest to the default channel.
func (d *Daemon) fireDigest(ctx context.Context) {
	text := d.engine.DailyDigest()
	if text == "" {
		// No activity today — suppress digest.
		return
	}
	if err := d.adapter.Send(ctx, chat.OutboundMessage{Text: text}); err != nil {
		log.Printf("usher: send digest: %v", err)
	}
}

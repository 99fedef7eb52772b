package usher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/marquee/internal/catalog"
	"github.com/zulandar/marquee/internal/chat"
	"github.com/zulandar/marquee/internal/history"
)

// DefaultPageSize is how many movies one catalog page carries.
const DefaultPageSize = 5

// Searcher abstracts the catalog client for testability.
type Searcher interface {
	// Execute runs one catalog query and returns the result page.
	Execute(ctx context.Context, intent catalog.QueryIntent) (*catalog.ResultPage, error)
}

// Engine is the conversation state machine. One Engine serves all
// conversations; per-conversation state lives in the sessions map. Callers
// must serialize events within a conversation (the daemon's per-conversation
// queues do this); events for different conversations may run concurrently.
type Engine struct {
	searcher Searcher
	history  *history.Store
	poster   PosterChecker
	pageSize int
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	Searcher Searcher
	History  *history.Store
	Poster   PosterChecker    // optional; nil disables poster attachments
	PageSize int              // defaults to DefaultPageSize
	Now      func() time.Time // defaults to time.Now
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Searcher == nil {
		return nil, fmt.Errorf("usher: searcher is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("usher: history store is required")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		searcher: opts.Searcher,
		history:  opts.History,
		poster:   opts.Poster,
		pageSize: pageSize,
		now:      now,
		sessions: make(map[string]*sessionState),
	}, nil
}

// Handle processes one inbound event and returns the reply script, in send
// order. It never returns an error: every failure path ends in a user-facing
// message and the conversation stays usable.
func (e *Engine) Handle(ctx context.Context, ev chat.InboundEvent) []chat.OutboundMessage {
	s := e.session(ev.Conversation)

	switch ev.Kind {
	case chat.EventAction:
		return e.handleAction(ctx, s, ev)
	case chat.EventText:
		return e.handleText(ctx, s, ev)
	}
	return nil
}

// handleAction dispatches a decoded button press.
func (e *Engine) handleAction(ctx context.Context, s *sessionState, ev chat.InboundEvent) []chat.OutboundMessage {
	conv := ev.Conversation

	switch ev.Action.Kind {
	case chat.ActionSearchTitle:
		s.phase = PhaseAwaitingTitle
		return []chat.OutboundMessage{e.text(conv, msgPromptTitle)}
	case chat.ActionSearchRating:
		s.phase = PhaseAwaitingRatingRange
		return []chat.OutboundMessage{e.text(conv, msgPromptRating)}
	case chat.ActionSearchYear:
		s.phase = PhaseAwaitingYear
		return []chat.OutboundMessage{e.text(conv, msgPromptYear)}
	case chat.ActionSearchGenre:
		s.phase = PhaseAwaitingGenre
		return []chat.OutboundMessage{e.text(conv, msgPromptGenre)}
	case chat.ActionHistory:
		s.phase = PhaseAwaitingHistoryDate
		return []chat.OutboundMessage{e.text(conv, msgPromptHistoryDate)}

	case chat.ActionLowBudget:
		return e.runSearch(ctx, s, conv, catalog.LowBudgetIntent(e.pageSize))
	case chat.ActionHighBudget:
		return e.runSearch(ctx, s, conv, catalog.HighBudgetIntent(e.pageSize))

	case chat.ActionRefresh:
		last := s.recall()
		if last == nil {
			return []chat.OutboundMessage{e.text(conv, msgNothingToRefresh)}
		}
		return e.runSearch(ctx, s, conv, last.NextPage())

	case chat.ActionMarkWatched:
		return e.markWatched(s, ev, true)
	case chat.ActionMarkNotWatched:
		return e.markWatched(s, ev, false)
	}

	log.Printf("usher: unhandled action kind %d [conv=%s]", ev.Action.Kind, conv)
	return nil
}

// handleText dispatches free text according to the active phase. Reset
// commands work from any phase.
func (e *Engine) handleText(ctx context.Context, s *sessionState, ev chat.InboundEvent) []chat.OutboundMessage {
	conv := ev.Conversation
	input := strings.TrimSpace(ev.Text)

	switch input {
	case "/start":
		s.phase = PhaseIdle
		s.lastIntent = nil
		return e.greet(conv)
	case "/help":
		return e.greet(conv)
	}

	switch s.phase {
	case PhaseIdle:
		// Plain text outside a dialog is not addressed to the bot.
		return nil

	case PhaseAwaitingTitle:
		if input == "" {
			return []chat.OutboundMessage{e.text(conv, msgTitleEmpty)}
		}
		return e.runSearch(ctx, s, conv, catalog.TitleIntent(input, e.pageSize))

	case PhaseAwaitingRatingRange:
		intent, err := parseRatingRange(input, e.pageSize)
		if err != nil {
			return []chat.OutboundMessage{e.text(conv, err.Error())}
		}
		return e.runSearch(ctx, s, conv, intent)

	case PhaseAwaitingYear:
		intent, err := parseYearRange(input, e.pageSize)
		if err != nil {
			return []chat.OutboundMessage{e.text(conv, err.Error())}
		}
		return e.runSearch(ctx, s, conv, intent)

	case PhaseAwaitingGenre:
		if input == "" {
			return []chat.OutboundMessage{e.text(conv, msgGenreEmpty)}
		}
		return e.runSearch(ctx, s, conv, catalog.GenreIntent(strings.ToLower(input), e.pageSize))

	case PhaseAwaitingHistoryDate:
		date, err := parseHistoryDate(input)
		if err != nil {
			// Retry policy is uniform across phases: a bad date keeps the
			// conversation waiting for a date.
			return []chat.OutboundMessage{e.text(conv, err.Error())}
		}
		s.phase = PhaseIdle
		return e.renderHistory(conv, date)
	}
	return nil
}

// runSearch executes an intent, folds titled results into history, remembers
// the intent for refresh, and emits the result script plus the menu.
func (e *Engine) runSearch(ctx context.Context, s *sessionState, conv string, intent catalog.QueryIntent) []chat.OutboundMessage {
	page, err := e.searcher.Execute(ctx, intent)
	if err != nil {
		log.Printf("usher: %s search page %d failed: %v", intent.Mode, intent.Page, err)
		s.phase = PhaseIdle
		return []chat.OutboundMessage{e.text(conv, err.Error()), e.menu(conv)}
	}

	s.phase = PhaseIdle
	s.remember(intent)

	searchedAt := e.now().Format(history.DateTimeLayout)
	var out []chat.OutboundMessage
	rendered := 0
	saveFailed := false

	for _, movie := range page.Movies {
		if strings.TrimSpace(movie.Title) == "" {
			continue
		}
		if err := e.history.Append(recordFromMovie(movie, searchedAt)); err != nil {
			log.Printf("usher: append history for movie %d: %v", movie.ID, err)
			saveFailed = true
		}
		msg := chat.OutboundMessage{
			Conversation: conv,
			Text:         renderMovie(movie),
			Buttons:      watchButtons(movie.ID),
		}
		if movie.PosterURL != "" && e.poster != nil {
			if e.poster.IsImage(ctx, movie.PosterURL) {
				msg.ImageURL = movie.PosterURL
			} else {
				msg.Text += "\n" + msgPosterFallback
			}
		}
		out = append(out, msg)
		rendered++
	}

	if rendered == 0 {
		out = append(out, e.text(conv, msgNoResults))
	}
	if saveFailed {
		out = append(out, e.text(conv, msgHistorySaveFail))
	}
	log.Printf("usher: %s search page %d: %d results [conv=%s]", intent.Mode, intent.Page, rendered, conv)
	return append(out, e.menu(conv))
}

// renderHistory emits records matching a date, each with its watch buttons.
func (e *Engine) renderHistory(conv, date string) []chat.OutboundMessage {
	records := e.history.QueryByDatePrefix(date)
	if len(records) == 0 {
		return []chat.OutboundMessage{e.text(conv, msgNoHistory), e.menu(conv)}
	}
	out := make([]chat.OutboundMessage, 0, len(records)+1)
	for _, rec := range records {
		out = append(out, chat.OutboundMessage{
			Conversation: conv,
			Text:         renderHistoryRecord(rec),
			Buttons:      watchButtons(rec.ID),
		})
	}
	return append(out, e.menu(conv))
}

// markWatched toggles the first matching record and removes the pressed
// buttons from the originating message. Repeating the press is harmless.
func (e *Engine) markWatched(s *sessionState, ev chat.InboundEvent, watched bool) []chat.OutboundMessage {
	conv := ev.Conversation
	if err := e.history.MarkWatched(ev.Action.MovieID, watched); err != nil {
		log.Printf("usher: mark watched=%t movie %d: %v", watched, ev.Action.MovieID, err)
		return []chat.OutboundMessage{e.text(conv, "Couldn't update your history. Please try again.")}
	}

	confirmation := msgMarkedNotWatched
	if watched {
		confirmation = msgMarkedWatched
	}
	out := []chat.OutboundMessage{e.text(conv, confirmation)}
	if ev.MessageID != "" {
		out = append(out, chat.OutboundMessage{
			Conversation: conv,
			ClearButtons: true,
			MessageID:    ev.MessageID,
		})
	}
	return out
}

// greet emits the welcome text plus the menu.
func (e *Engine) greet(conv string) []chat.OutboundMessage {
	return []chat.OutboundMessage{e.text(conv, msgGreeting), e.menu(conv)}
}

func (e *Engine) text(conv, text string) chat.OutboundMessage {
	return chat.OutboundMessage{Conversation: conv, Text: text}
}

func (e *Engine) menu(conv string) chat.OutboundMessage {
	return chat.OutboundMessage{Conversation: conv, Text: msgMenuHint, Buttons: mainMenu()}
}

// session returns the conversation's state, creating it on first event and
// stamping it for idle eviction.
func (e *Engine) session(conv string) *sessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[conv]
	if !ok {
		s = &sessionState{}
		e.sessions[conv] = s
	}
	s.lastSeen = e.now()
	return s
}

// EvictIdle discards sessions with no activity for maxIdle and returns how
// many were removed. A discarded conversation starts fresh on its next event.
func (e *Engine) EvictIdle(maxIdle time.Duration) int {
	cutoff := e.now().Add(-maxIdle)
	e.mu.Lock()
	defer e.mu.Unlock()
	evicted := 0
	for conv, s := range e.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(e.sessions, conv)
			evicted++
		}
	}
	return evicted
}

// recordFromMovie snapshots a catalog result for the history file.
func recordFromMovie(m catalog.Movie, searchedAt string) history.Record {
	return history.Record{
		ID:          m.ID,
		Date:        searchedAt,
		Title:       m.Title,
		Description: m.Description,
		Rating:      m.Rating,
		Year:        m.Year,
		Genre:       strings.Join(m.Genres, ", "),
		AgeRating:   m.AgeRating,
		Poster:      m.PosterURL,
	}
}

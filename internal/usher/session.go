// Package usher is the conversation engine: it tracks per-conversation dialog
// state, turns user events into catalog queries, folds results into the
// history store, and emits the reply script for the chat adapter.
package usher

import (
	"time"

	"github.com/zulandar/marquee/internal/catalog"
)

// Phase is the conversation's expectation of what kind of input comes next.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingTitle
	PhaseAwaitingRatingRange
	PhaseAwaitingYear
	PhaseAwaitingGenre
	PhaseAwaitingHistoryDate
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingTitle:
		return "awaiting-title"
	case PhaseAwaitingRatingRange:
		return "awaiting-rating"
	case PhaseAwaitingYear:
		return "awaiting-year"
	case PhaseAwaitingGenre:
		return "awaiting-genre"
	case PhaseAwaitingHistoryDate:
		return "awaiting-history-date"
	}
	return "unknown"
}

// sessionState is the per-conversation scratchpad. It holds no validation
// logic; the engine owns all transitions. Each conversation's state is only
// touched by the goroutine handling that conversation's current event, so no
// per-session lock is needed.
type sessionState struct {
	phase      Phase
	lastIntent *catalog.QueryIntent
	lastSeen   time.Time
}

// remember stores the intent for later refresh.
func (s *sessionState) remember(intent catalog.QueryIntent) {
	s.lastIntent = &intent
}

// recall returns the last remembered intent, or nil.
func (s *sessionState) recall() *catalog.QueryIntent {
	return s.lastIntent
}

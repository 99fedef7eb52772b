package chat

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates the closed set of button actions the bot understands.
type ActionKind int

const (
	ActionSearchTitle ActionKind = iota
	ActionSearchRating
	ActionLowBudget
	ActionHighBudget
	ActionSearchYear
	ActionSearchGenre
	ActionHistory
	ActionRefresh
	ActionMarkWatched
	ActionMarkNotWatched
)

// Wire payloads for the fixed menu actions.
const (
	payloadSearchTitle  = "movie_search"
	payloadSearchRating = "movie_by_rating"
	payloadLowBudget    = "low_budget_movie"
	payloadHighBudget   = "high_budget_movie"
	payloadSearchYear   = "movie_by_year"
	payloadSearchGenre  = "movie_by_genre"
	payloadHistory      = "history"
	payloadRefresh      = "refresh"

	prefixMarkWatched    = "mark_watched_"
	prefixMarkNotWatched = "mark_not_watched_"
)

// Action is a decoded button press. MovieID is set for the mark-watched and
// mark-not-watched kinds.
type Action struct {
	Kind    ActionKind
	MovieID int64
}

// DecodeAction translates a button payload into a typed Action. Payloads
// outside the closed set are rejected explicitly rather than ignored.
func DecodeAction(payload string) (Action, error) {
	switch payload {
	case payloadSearchTitle:
		return Action{Kind: ActionSearchTitle}, nil
	case payloadSearchRating:
		return Action{Kind: ActionSearchRating}, nil
	case payloadLowBudget:
		return Action{Kind: ActionLowBudget}, nil
	case payloadHighBudget:
		return Action{Kind: ActionHighBudget}, nil
	case payloadSearchYear:
		return Action{Kind: ActionSearchYear}, nil
	case payloadSearchGenre:
		return Action{Kind: ActionSearchGenre}, nil
	case payloadHistory:
		return Action{Kind: ActionHistory}, nil
	case payloadRefresh:
		return Action{Kind: ActionRefresh}, nil
	}

	if id, ok := strings.CutPrefix(payload, prefixMarkNotWatched); ok {
		return markAction(ActionMarkNotWatched, id, payload)
	}
	if id, ok := strings.CutPrefix(payload, prefixMarkWatched); ok {
		return markAction(ActionMarkWatched, id, payload)
	}

	return Action{}, fmt.Errorf("chat: unrecognized action payload %q", payload)
}

func markAction(kind ActionKind, rawID, payload string) (Action, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Action{}, fmt.Errorf("chat: bad movie id in action payload %q", payload)
	}
	return Action{Kind: kind, MovieID: id}, nil
}

// Payload is the inverse of DecodeAction, used when attaching buttons.
func (a Action) Payload() string {
	switch a.Kind {
	case ActionSearchTitle:
		return payloadSearchTitle
	case ActionSearchRating:
		return payloadSearchRating
	case ActionLowBudget:
		return payloadLowBudget
	case ActionHighBudget:
		return payloadHighBudget
	case ActionSearchYear:
		return payloadSearchYear
	case ActionSearchGenre:
		return payloadSearchGenre
	case ActionHistory:
		return payloadHistory
	case ActionRefresh:
		return payloadRefresh
	case ActionMarkWatched:
		return prefixMarkWatched + strconv.FormatInt(a.MovieID, 10)
	case ActionMarkNotWatched:
		return prefixMarkNotWatched + strconv.FormatInt(a.MovieID, 10)
	}
	return ""
}

package usher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/marquee/internal/catalog"
	"github.com/zulandar/marquee/internal/chat"
	"github.com/zulandar/marquee/internal/history"
)

// Fixed reply texts.
const (
	msgGreeting = "Hi! I can search the movie catalog by title, rating, budget, year, or genre, and keep a history of everything you've seen. Pick a command below. Refresh repeats your last search one page further."
	msgMenuHint = "Choose a command:"

	msgPromptTitle       = "Which movie should I look for?"
	msgPromptRating      = "Send a rating range, like 7-9.5."
	msgPromptYear        = "Send a year like 1999, or a range like 1990-1999."
	msgPromptGenre       = "Send a genre, like drama or comedy."
	msgPromptHistoryDate = "Which day should I look up? Send a date like 21-05-2024."

	msgNoResults        = "Nothing found. Try another query or Refresh for the next page."
	msgNothingToRefresh = "Nothing to refresh yet. Run a search first."
	msgNoHistory        = "No history for that day."
	msgMarkedWatched    = "Marked as watched."
	msgMarkedNotWatched = "Marked as not watched."
	msgPosterFallback   = "Couldn't load the poster for this one."
	msgHistorySaveFail  = "Warning: this result could not be saved to your history."
)

// mainMenu is the inline command menu re-displayed after every reply script.
// Rows are kept at two buttons each for Discord's action-row limits.
func mainMenu() [][]chat.Button {
	return [][]chat.Button{
		{
			{Label: "Search by title", Action: chat.Action{Kind: chat.ActionSearchTitle}},
			{Label: "Search by rating", Action: chat.Action{Kind: chat.ActionSearchRating}},
		},
		{
			{Label: "Low budget picks", Action: chat.Action{Kind: chat.ActionLowBudget}},
			{Label: "Big budget picks", Action: chat.Action{Kind: chat.ActionHighBudget}},
		},
		{
			{Label: "Search by year", Action: chat.Action{Kind: chat.ActionSearchYear}},
			{Label: "Search by genre", Action: chat.Action{Kind: chat.ActionSearchGenre}},
		},
		{
			{Label: "History", Action: chat.Action{Kind: chat.ActionHistory}},
			{Label: "Refresh", Action: chat.Action{Kind: chat.ActionRefresh}},
		},
	}
}

// watchButtons is the per-movie watched/not-watched affordance.
func watchButtons(movieID int64) [][]chat.Button {
	return [][]chat.Button{
		{
			{Label: "Watched", Action: chat.Action{Kind: chat.ActionMarkWatched, MovieID: movieID}},
			{Label: "Not watched", Action: chat.Action{Kind: chat.ActionMarkNotWatched, MovieID: movieID}},
		},
	}
}

// renderMovie formats one catalog result as markdown. Missing fields get
// readable placeholders rather than blanks.
func renderMovie(m catalog.Movie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Title:* %s\n", m.Title)
	fmt.Fprintf(&b, "*Description:* %s\n", orPlaceholder(m.Description, "No description"))
	fmt.Fprintf(&b, "*IMDb rating:* %s\n", ratingText(m.Rating))
	fmt.Fprintf(&b, "*Year:* %s\n", yearText(m.Year))
	fmt.Fprintf(&b, "*Genre:* %s\n", orPlaceholder(strings.Join(m.Genres, ", "), "Unknown"))
	fmt.Fprintf(&b, "*Age rating:* %s", orPlaceholder(m.AgeRating, "N/A"))
	return b.String()
}

// renderHistoryRecord formats one persisted record, including when it was
// found and whether it has been watched.
func renderHistoryRecord(rec history.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Title:* %s\n", rec.Title)
	fmt.Fprintf(&b, "*Description:* %s\n", orPlaceholder(rec.Description, "No description"))
	fmt.Fprintf(&b, "*IMDb rating:* %s\n", ratingText(rec.Rating))
	fmt.Fprintf(&b, "*Year:* %s\n", yearText(rec.Year))
	fmt.Fprintf(&b, "*Genre:* %s\n", orPlaceholder(rec.Genre, "Unknown"))
	fmt.Fprintf(&b, "*Age rating:* %s\n", orPlaceholder(rec.AgeRating, "N/A"))
	fmt.Fprintf(&b, "*Search date:* %s\n", rec.Date)
	fmt.Fprintf(&b, "*Status:* %s", watchedText(rec.Watched))
	return b.String()
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func ratingText(rating float64) string {
	if rating == 0 {
		return "No rating"
	}
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

func yearText(year int) string {
	if year == 0 {
		return "Unknown"
	}
	return strconv.Itoa(year)
}

func watchedText(watched bool) string {
	if watched {
		return "Watched"
	}
	return "Not watched"
}

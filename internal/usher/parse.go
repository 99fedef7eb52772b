package usher

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/marquee/internal/catalog"
	"github.com/zulandar/marquee/internal/history"
)

// Input grammars for the awaiting phases. Every error returned here carries
// user-facing text naming the expected format; the engine sends it verbatim
// and keeps the conversation in the same phase for a retry.

const (
	msgRatingMalformed  = "Send a rating range as two numbers separated by a dash, like 7-9.5."
	msgRatingOutOfRange = "Ratings must be between 0 and 10, lowest first."
	msgYearMalformed    = "Send a year like 1999, or a range like 1990-1999."
	msgYearOutOfRange   = "Years must be between 1930 and 2024, earliest first."
	msgDateMalformed    = "Send a date like 21-05-2024 or 21.05.2024."
	msgTitleEmpty       = "Send a movie title to search for."
	msgGenreEmpty       = "Send a genre name, like drama or comedy."
)

// historyDateLayouts are tried in order; the first that parses wins.
// Two-digit years map into the 2000s.
var historyDateLayouts = []string{"02-01-2006", "02.01.2006", "2.01.06"}

// parseRatingRange parses "a-b" with both bounds in [0,10] and a <= b.
func parseRatingRange(input string, limit int) (catalog.QueryIntent, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(input), "-")
	if !ok {
		return catalog.QueryIntent{}, fmt.Errorf("%s", msgRatingMalformed)
	}
	from, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	to, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil {
		return catalog.QueryIntent{}, fmt.Errorf("%s", msgRatingMalformed)
	}
	intent, err := catalog.RatingIntent(from, to, limit)
	if err != nil {
		return catalog.QueryIntent{}, fmt.Errorf("%s", msgRatingOutOfRange)
	}
	return intent, nil
}

// parseYearRange parses either a single year or "start-end", each bound in
// [1930,2024]. A single year is the degenerate range start == end.
func parseYearRange(input string, limit int) (catalog.QueryIntent, error) {
	text := strings.TrimSpace(input)

	if !strings.Contains(text, "-") {
		year, err := strconv.Atoi(text)
		if err != nil {
			return catalog.QueryIntent{}, fmt.Errorf("%s", msgYearMalformed)
		}
		intent, err := catalog.YearIntent(year, year, limit)
		if err != nil {
			return catalog.QueryIntent{}, fmt.Errorf("%s", msgYearOutOfRange)
		}
		return intent, nil
	}

	lo, hi, _ := strings.Cut(text, "-")
	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil {
		return catalog.QueryIntent{}, fmt.Errorf("%s", msgYearMalformed)
	}
	intent, err := catalog.YearIntent(start, end, limit)
	if err != nil {
		return catalog.QueryIntent{}, fmt.Errorf("%s", msgYearOutOfRange)
	}
	return intent, nil
}

// parseHistoryDate tries the accepted date formats in order and normalizes
// the first match to the history store's date layout.
func parseHistoryDate(input string) (string, error) {
	text := strings.TrimSpace(input)
	for _, layout := range historyDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(history.DateLayout), nil
		}
	}
	return "", fmt.Errorf("%s", msgDateMalformed)
}

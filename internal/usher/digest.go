package usher

import (
	"fmt"
	"strings"

	"github.com/zulandar/marquee/internal/history"
)

// DailyDigest summarizes today's search activity for the scheduled digest
// post. Returns "" when there was no activity, which suppresses the digest.
func (e *Engine) DailyDigest() string {
	today := e.now().Format(history.DateLayout)
	records := e.history.QueryByDatePrefix(today)
	if len(records) == 0 {
		return ""
	}

	watched := 0
	seen := make(map[string]bool)
	var titles []string
	for _, rec := range records {
		if rec.Watched {
			watched++
		}
		if !seen[rec.Title] {
			seen[rec.Title] = true
			titles = append(titles, rec.Title)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Today's movie digest*\n")
	fmt.Fprintf(&b, "%d result(s) found, %d marked watched.\n", len(records), watched)
	fmt.Fprintf(&b, "Titles: %s", strings.Join(titles, ", "))
	return b.String()
}

package catalog

import "fmt"

// Year bounds accepted for year-range queries.
const (
	MinYear = 1930
	MaxYear = 2024
)

// Mode selects which catalog query an intent performs.
type Mode int

const (
	ByTitle Mode = iota
	ByRatingRange
	ByYearRange
	ByGenre
	LowBudget
	HighBudget
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ByTitle:
		return "by-title"
	case ByRatingRange:
		return "by-rating"
	case ByYearRange:
		return "by-year"
	case ByGenre:
		return "by-genre"
	case LowBudget:
		return "low-budget"
	case HighBudget:
		return "high-budget"
	}
	return "unknown"
}

// QueryIntent is an immutable description of one catalog query: mode,
// parameters, and pagination. A new page is always a new value — intents
// are never mutated in place.
type QueryIntent struct {
	Mode       Mode
	Title      string
	RatingFrom float64
	RatingTo   float64
	YearStart  int
	YearEnd    int
	Genre      string
	Page       int
	Limit      int
}

// TitleIntent builds a page-1 title search.
func TitleIntent(title string, limit int) QueryIntent {
	return QueryIntent{Mode: ByTitle, Title: title, Page: 1, Limit: limit}
}

// RatingIntent builds a page-1 rating-range search. Bounds must lie in
// [0,10] with from <= to.
func RatingIntent(from, to float64, limit int) (QueryIntent, error) {
	if from < 0 || from > 10 || to < 0 || to > 10 {
		return QueryIntent{}, fmt.Errorf("catalog: rating bounds %g-%g outside [0,10]", from, to)
	}
	if from > to {
		return QueryIntent{}, fmt.Errorf("catalog: rating range %g-%g is inverted", from, to)
	}
	return QueryIntent{Mode: ByRatingRange, RatingFrom: from, RatingTo: to, Page: 1, Limit: limit}, nil
}

// YearIntent builds a page-1 year-range search. Bounds must lie in
// [MinYear,MaxYear] with start <= end. A single year is the degenerate
// range start == end.
func YearIntent(start, end, limit int) (QueryIntent, error) {
	if start < MinYear || start > MaxYear || end < MinYear || end > MaxYear {
		return QueryIntent{}, fmt.Errorf("catalog: year bounds %d-%d outside [%d,%d]", start, end, MinYear, MaxYear)
	}
	if start > end {
		return QueryIntent{}, fmt.Errorf("catalog: year range %d-%d is inverted", start, end)
	}
	return QueryIntent{Mode: ByYearRange, YearStart: start, YearEnd: end, Page: 1, Limit: limit}, nil
}

// GenreIntent builds a page-1 genre search. Genre validity is the
// backend's concern, not checked here.
func GenreIntent(genre string, limit int) QueryIntent {
	return QueryIntent{Mode: ByGenre, Genre: genre, Page: 1, Limit: limit}
}

// LowBudgetIntent builds a page-1 search for low-budget movies.
func LowBudgetIntent(limit int) QueryIntent {
	return QueryIntent{Mode: LowBudget, Page: 1, Limit: limit}
}

// HighBudgetIntent builds a page-1 search for high-budget movies.
func HighBudgetIntent(limit int) QueryIntent {
	return QueryIntent{Mode: HighBudget, Page: 1, Limit: limit}
}

// NextPage returns a copy of the intent advanced to the next page.
func (q QueryIntent) NextPage() QueryIntent {
	q.Page++
	return q
}

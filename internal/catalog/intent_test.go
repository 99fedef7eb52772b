package catalog

import "testing"

func TestRatingIntent_Valid(t *testing.T) {
	q, err := RatingIntent(7, 9.5, 5)
	if err != nil {
		t.Fatalf("rating intent: %v", err)
	}
	if q.Mode != ByRatingRange || q.RatingFrom != 7 || q.RatingTo != 9.5 {
		t.Errorf("unexpected intent: %+v", q)
	}
	if q.Page != 1 || q.Limit != 5 {
		t.Errorf("expected page 1 limit 5, got page %d limit %d", q.Page, q.Limit)
	}
}

func TestRatingIntent_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		from, to float64
	}{
		{"inverted", 9, 7},
		{"below zero", -1, 5},
		{"above ten", 5, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := RatingIntent(tc.from, tc.to, 5); err == nil {
				t.Errorf("expected error for %g-%g", tc.from, tc.to)
			}
		})
	}
}

func TestYearIntent_SingleYearDegenerate(t *testing.T) {
	q, err := YearIntent(1999, 1999, 5)
	if err != nil {
		t.Fatalf("year intent: %v", err)
	}
	if q.YearStart != 1999 || q.YearEnd != 1999 {
		t.Errorf("unexpected bounds: %+v", q)
	}
}

func TestYearIntent_Invalid(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"too early", 1929, 2000},
		{"too late", 2000, 2025},
		{"inverted", 2020, 2010},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := YearIntent(tc.start, tc.end, 5); err == nil {
				t.Errorf("expected error for %d-%d", tc.start, tc.end)
			}
		})
	}
}

func TestNextPage_ReturnsCopy(t *testing.T) {
	q := TitleIntent("matrix", 5)
	next := q.NextPage()
	if next.Page != 2 {
		t.Errorf("expected page 2, got %d", next.Page)
	}
	if q.Page != 1 {
		t.Errorf("original intent mutated: page %d", q.Page)
	}
	if next.Title != "matrix" || next.Limit != 5 {
		t.Errorf("next page lost parameters: %+v", next)
	}
}

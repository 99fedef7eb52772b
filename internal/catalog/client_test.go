package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// captureServer returns a test server that records the last request and
// responds with the given body.
func captureServer(t *testing.T, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var last http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientOpts{BaseURL: baseURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestExecute_ParameterMapping(t *testing.T) {
	rating, _ := RatingIntent(7, 9.5, 5)
	year, _ := YearIntent(2000, 2010, 5)

	cases := []struct {
		name   string
		intent QueryIntent
		path   string
		want   url.Values
	}{
		{
			name:   "by title",
			intent: TitleIntent("matrix", 5),
			path:   "/search",
			want:   url.Values{"query": {"matrix"}, "page": {"1"}, "limit": {"5"}},
		},
		{
			name:   "by rating",
			intent: rating,
			path:   "/",
			want:   url.Values{"rating.imdb": {"7-9.5"}, "notNullFields": {"name"}, "page": {"1"}, "limit": {"5"}},
		},
		{
			name:   "by year",
			intent: year,
			path:   "/",
			want:   url.Values{"year": {"2000-2010"}, "notNullFields": {"name"}, "page": {"1"}, "limit": {"5"}},
		},
		{
			name:   "by genre",
			intent: GenreIntent("horror", 5),
			path:   "/",
			want:   url.Values{"genres.name": {"horror"}, "notNullFields": {"name"}, "page": {"1"}, "limit": {"5"}},
		},
		{
			name:   "low budget",
			intent: LowBudgetIntent(5),
			path:   "/",
			want:   url.Values{"budget.value": {"0-10000000"}, "notNullFields": {"name"}, "page": {"1"}, "limit": {"5"}},
		},
		{
			name:   "high budget page 3",
			intent: HighBudgetIntent(5).NextPage().NextPage(),
			path:   "/",
			want:   url.Values{"budget.value": {"100000000-100000000000"}, "notNullFields": {"name"}, "page": {"3"}, "limit": {"5"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, last := captureServer(t, `{"docs": []}`)
			c := newTestClient(t, srv.URL)

			if _, err := c.Execute(context.Background(), tc.intent); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if last.URL.Path != tc.path {
				t.Errorf("expected path %s, got %s", tc.path, last.URL.Path)
			}
			got := last.URL.Query()
			for key, want := range tc.want {
				if got.Get(key) != want[0] {
					t.Errorf("param %s: expected %q, got %q", key, want[0], got.Get(key))
				}
			}
			if len(got) != len(tc.want) {
				t.Errorf("expected %d params, got %v", len(tc.want), got)
			}
			if last.Header.Get("X-API-KEY") != "test-key" {
				t.Errorf("missing API key header")
			}
		})
	}
}

func TestExecute_NormalizesDocs(t *testing.T) {
	body := `{"docs": [
		{"id": 42, "name": "The Matrix", "description": "Simulated reality.",
		 "rating": {"imdb": 8.7}, "year": 1999,
		 "genres": [{"name": "sci-fi"}, {"name": "action"}],
		 "ageRating": 16, "poster": {"url": "https://img.example.com/42.jpg"}},
		{"id": 43, "name": "Untitled"}
	]}`
	srv, _ := captureServer(t, body)
	c := newTestClient(t, srv.URL)

	page, err := c.Execute(context.Background(), TitleIntent("matrix", 5))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(page.Movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(page.Movies))
	}
	m := page.Movies[0]
	if m.ID != 42 || m.Title != "The Matrix" || m.Rating != 8.7 || m.Year != 1999 {
		t.Errorf("unexpected movie: %+v", m)
	}
	if len(m.Genres) != 2 || m.Genres[0] != "sci-fi" {
		t.Errorf("unexpected genres: %v", m.Genres)
	}
	if m.AgeRating != "16" || m.PosterURL != "https://img.example.com/42.jpg" {
		t.Errorf("unexpected age rating / poster: %q %q", m.AgeRating, m.PosterURL)
	}
	if page.Movies[1].AgeRating != "" || page.Movies[1].PosterURL != "" {
		t.Errorf("missing fields should normalize to empty: %+v", page.Movies[1])
	}
}

func TestExecute_EmptyDocs(t *testing.T) {
	srv, _ := captureServer(t, `{"docs": []}`)
	c := newTestClient(t, srv.URL)

	page, err := c.Execute(context.Background(), TitleIntent("zzz", 5))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(page.Movies) != 0 {
		t.Errorf("expected empty page, got %d movies", len(page.Movies))
	}
}

func TestExecute_BackendError(t *testing.T) {
	srv, _ := captureServer(t, `{"error": "daily request quota exceeded"}`)
	c := newTestClient(t, srv.URL)

	_, err := c.Execute(context.Background(), TitleIntent("matrix", 5))
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if qe.Kind != KindBackend || qe.Error() != "daily request quota exceeded" {
		t.Errorf("unexpected error: kind=%d text=%q", qe.Kind, qe.Error())
	}
}

func TestExecute_DecodeError(t *testing.T) {
	srv, _ := captureServer(t, `{"docs": [not json`)
	c := newTestClient(t, srv.URL)

	_, err := c.Execute(context.Background(), TitleIntent("matrix", 5))
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	_, err := c.Execute(context.Background(), TitleIntent("matrix", 5))
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}

	// Unreachable server is also a transport error.
	srv.Close()
	if _, err := c.Execute(context.Background(), TitleIntent("matrix", 5)); err == nil {
		t.Fatal("expected error for closed server")
	} else if !errors.As(err, &qe) || qe.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(ClientOpts{APIKey: "k"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewClient(ClientOpts{BaseURL: "http://x"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

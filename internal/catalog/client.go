// Package catalog implements the client for the remote movie catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Budget windows for the fixed low/high budget searches, in dollars.
const (
	lowBudgetWindow  = "0-10000000"
	highBudgetWindow = "100000000-100000000000"
)

// ErrorKind classifies a failed catalog query.
type ErrorKind int

const (
	// KindTransport covers network failures and non-success HTTP statuses.
	KindTransport ErrorKind = iota
	// KindDecode covers response bodies that cannot be parsed.
	KindDecode
	// KindBackend covers failures the backend reports in its response body.
	KindBackend
)

// QueryError is a terminal catalog failure. Its Error text is shown to the
// user verbatim; there is no retry.
type QueryError struct {
	Kind    ErrorKind
	Message string // backend-reported text, set for KindBackend
	Err     error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case KindTransport:
		return "the catalog request failed"
	case KindDecode:
		return "the catalog response could not be read"
	case KindBackend:
		return e.Message
	}
	return "catalog query failed"
}

func (e *QueryError) Unwrap() error { return e.Err }

// Movie is one normalized catalog entry.
type Movie struct {
	ID          int64
	Title       string
	Description string
	Rating      float64
	Year        int
	Genres      []string
	AgeRating   string
	PosterURL   string
}

// ResultPage is one page of catalog results, in backend order. May be empty.
type ResultPage struct {
	Movies []Movie
}

// Client performs catalog queries. One outbound GET per Execute call, no
// retries, no caching.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // per-request timeout, defaults to 10s
	HTTPClient *http.Client  // optional; overrides Timeout when set
}

// NewClient creates a catalog Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("catalog: base URL is required")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("catalog: API key is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: hc,
	}, nil
}

// Execute performs the backend request for an intent and normalizes the
// response. Transport and decode failures are terminal for the call.
func (c *Client) Execute(ctx context.Context, intent QueryIntent) (*ResultPage, error) {
	reqURL := c.requestURL(intent)
	log.Printf("catalog: GET %s [mode=%s page=%d]", reqURL, intent.Mode, intent.Page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &QueryError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &QueryError{Kind: KindTransport, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &QueryError{Kind: KindDecode, Err: err}
	}
	if body.Error != "" {
		return nil, &QueryError{Kind: KindBackend, Message: body.Error}
	}

	page := &ResultPage{}
	for _, doc := range body.Docs {
		page.Movies = append(page.Movies, doc.normalize())
	}
	return page, nil
}

// requestURL builds the backend URL for an intent. Title searches go to the
// /search path; everything else hits the base path with notNullFields=name.
func (c *Client) requestURL(intent QueryIntent) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(intent.Page))
	params.Set("limit", strconv.Itoa(intent.Limit))

	path := c.baseURL
	switch intent.Mode {
	case ByTitle:
		path += "/search"
		params.Set("query", intent.Title)
	case ByRatingRange:
		params.Set("rating.imdb", formatRange(intent.RatingFrom, intent.RatingTo))
		params.Set("notNullFields", "name")
	case ByYearRange:
		params.Set("year", fmt.Sprintf("%d-%d", intent.YearStart, intent.YearEnd))
		params.Set("notNullFields", "name")
	case ByGenre:
		params.Set("genres.name", intent.Genre)
		params.Set("notNullFields", "name")
	case LowBudget:
		params.Set("budget.value", lowBudgetWindow)
		params.Set("notNullFields", "name")
	case HighBudget:
		params.Set("budget.value", highBudgetWindow)
		params.Set("notNullFields", "name")
	}
	return path + "?" + params.Encode()
}

// formatRange renders a float range as "from-to" without trailing zeros.
func formatRange(from, to float64) string {
	return strconv.FormatFloat(from, 'f', -1, 64) + "-" + strconv.FormatFloat(to, 'f', -1, 64)
}

// searchResponse is the wire shape of a catalog response: either a docs
// sequence or a backend-reported error string.
type searchResponse struct {
	Docs  []movieDoc `json:"docs"`
	Error string     `json:"error"`
}

type movieDoc struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rating      struct {
		IMDB float64 `json:"imdb"`
	} `json:"rating"`
	Year   int `json:"year"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	AgeRating *int `json:"ageRating"`
	Poster    *struct {
		URL string `json:"url"`
	} `json:"poster"`
}

// normalize flattens the wire shape into a Movie.
func (d movieDoc) normalize() Movie {
	m := Movie{
		ID:          d.ID,
		Title:       d.Name,
		Description: d.Description,
		Rating:      d.Rating.IMDB,
		Year:        d.Year,
	}
	for _, g := range d.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	if d.AgeRating != nil {
		m.AgeRating = strconv.Itoa(*d.AgeRating)
	}
	if d.Poster != nil {
		m.PosterURL = d.Poster.URL
	}
	return m
}

package usher

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// PosterChecker reports whether a URL serves an image. Results that fail the
// check are delivered as text only.
type PosterChecker interface {
	IsImage(ctx context.Context, url string) bool
}

// HTTPPosterChecker validates poster URLs with a HEAD request: the response
// content type must start with "image". Any transport failure counts as
// not-an-image.
type HTTPPosterChecker struct {
	client *http.Client
}

// NewHTTPPosterChecker creates a checker with a short dedicated timeout so a
// slow poster host cannot stall result delivery.
func NewHTTPPosterChecker() *HTTPPosterChecker {
	return &HTTPPosterChecker{client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *HTTPPosterChecker) IsImage(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image")
}

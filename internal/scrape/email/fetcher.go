package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxPageBytes = 2 << 20 // plenty for a contact page, caps runaway bodies

// HTTPFetcher retrieves pages with a plain GET. Good enough for most small
// business sites; JS-rendered sites need the browser fetcher instead.
type HTTPFetcher struct {
	hc *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &HTTPFetcher{
		hc: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("email fetch build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; mapleads/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := f.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("email fetch get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("email fetch status %d", res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("email fetch read body: %w", err)
	}
	return string(b), nil
}

// Package fetch retrieves source image bytes from remote URLs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetch is returned when a source URL cannot be retrieved.
var ErrFetch = errors.New("fetch failed")

// DefaultContentType is assumed when the source server does not declare one.
const DefaultContentType = "image/jpeg"

// maxImageBytes caps how much of a response body is read. Source images
// larger than this fail the fetch rather than exhaust memory.
const maxImageBytes = 32 << 20

// Fetcher retrieves raw bytes from a URL.
type Fetcher interface {
	// Fetch performs a GET against url and returns the body bytes and the
	// declared content type. Non-2xx responses and transport errors wrap
	// ErrFetch. Fetch never retries.
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher with a bounded request timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Fetch retrieves the bytes at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: creating request: %v", ErrFetch, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: sending request: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: source returned status %d for %s", ErrFetch, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("%w: source body exceeds %d bytes", ErrFetch, maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	return data, contentType, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)

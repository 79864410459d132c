package testutils

import (
	"context"
	"fmt"

	"github.com/pixelheap/imagedex/pkg/fetch"
)

// MockFetcher serves canned responses by URL.
type MockFetcher struct {
	// Responses maps URL to the bytes to return.
	Responses map[string][]byte

	// ContentTypes maps URL to the content type to return. Defaults to
	// image/jpeg when absent.
	ContentTypes map[string]string

	// FailOn causes Fetch to return an error when the URL matches.
	FailOn string
}

// NewMockFetcher creates a new mock fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Responses:    make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

func (m *MockFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	if m.FailOn != "" && url == m.FailOn {
		return nil, "", fmt.Errorf("%w: mock fetch failure for %s", fetch.ErrFetch, url)
	}
	data, ok := m.Responses[url]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s: 404", fetch.ErrFetch, url)
	}
	contentType := m.ContentTypes[url]
	if contentType == "" {
		contentType = fetch.DefaultContentType
	}
	return data, contentType, nil
}

var _ fetch.Fetcher = (*MockFetcher)(nil)

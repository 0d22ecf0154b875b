package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	fetchTimeout  = 30 * time.Second
	maxFetchBytes = 32 << 20 // 32 MiB cap on fetched bodies
)

// Fetcher retrieves a URL and extracts its content based on the response
// Content-Type.
type Fetcher struct {
	registry *Registry
	client   *http.Client
}

// NewFetcher creates a Fetcher dispatching into registry.
func NewFetcher(registry *Registry) *Fetcher {
	return &Fetcher{
		registry: registry,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// FromURL fetches url and extracts its content. The response Content-Type
// selects the extractor; a missing header falls back to text/html. The
// normalized mime type is returned alongside the content so callers can
// record what was actually fetched.
func (f *Fetcher) FromURL(ctx context.Context, url string) (*Content, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/html, application/pdf, text/plain, text/markdown")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", ErrFetchFailed, url, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html"
	}
	mimeType := normalizeMime(contentType)

	content, err := f.registry.Extract(ctx, mimeType, url, data)
	if err != nil {
		return nil, "", err
	}
	return content, mimeType, nil
}

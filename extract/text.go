package extract

import (
	"context"
	"strings"
)

// extractText handles plain text and markdown. The whole body becomes a
// single prose segment.
func extractText(_ context.Context, _ string, data []byte) (*Content, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrEmptyContent
	}

	return &Content{
		Segments: []Segment{{Text: text}},
	}, nil
}

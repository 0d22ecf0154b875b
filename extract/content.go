package extract

import (
	"context"
	"mime"
	"strings"
)

// Segment is one labeled region of extracted text, such as a PDF page or
// a spreadsheet row block. Tabular marks row-wise content so the chunker
// splits on lines instead of sentences.
type Segment struct {
	Label   string
	Text    string
	Tabular bool
}

// Content is the normalized output of extraction: a title plus ordered
// text segments.
type Content struct {
	Title    string
	Segments []Segment
}

// Text concatenates all segments, mostly useful in tests and debugging.
func (c *Content) Text() string {
	parts := make([]string, 0, len(c.Segments))
	for _, segment := range c.Segments {
		parts = append(parts, segment.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Extractor converts raw bytes of a known mime type into Content.
// name is the original file name or URL, used for the title fallback.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (*Content, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, name string, data []byte) (*Content, error)

func (f ExtractorFunc) Extract(ctx context.Context, name string, data []byte) (*Content, error) {
	return f(ctx, name, data)
}

// normalizeMime strips parameters and lowercases a Content-Type value,
// so "text/html; charset=utf-8" dispatches as "text/html".
func normalizeMime(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}

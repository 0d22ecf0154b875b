package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Registry maps mime types to extractors. The zero value is unusable;
// use NewRegistry, which installs the built-in extractors.
type Registry struct {
	extractors map[string]Extractor
	logger     *slog.Logger
}

// NewRegistry creates a registry with the built-in extractors installed:
// plain text, markdown, CSV, TSV, PDF and HTML.
func NewRegistry() *Registry {
	r := &Registry{
		extractors: make(map[string]Extractor),
		logger:     slog.Default().With("component", "extract"),
	}

	r.Register("text/plain", ExtractorFunc(extractText))
	r.Register("text/markdown", ExtractorFunc(extractText))
	r.Register("text/csv", ExtractorFunc(extractCSV))
	r.Register("text/tab-separated-values", ExtractorFunc(extractTSV))
	r.Register("application/pdf", newPDFExtractor())
	r.Register("text/html", newHTMLExtractor())

	return r
}

// Register installs an extractor for a mime type, replacing any existing one.
func (r *Registry) Register(mimeType string, extractor Extractor) {
	r.extractors[normalizeMime(mimeType)] = extractor
}

// Supports reports whether a mime type has a registered extractor.
func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.extractors[normalizeMime(mimeType)]
	return ok
}

// Extract dispatches to the extractor registered for mimeType.
// Unknown types return an error wrapping ErrUnsupportedType.
func (r *Registry) Extract(ctx context.Context, mimeType, name string, data []byte) (*Content, error) {
	normalized := normalizeMime(mimeType)

	extractor, ok := r.extractors[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, normalized)
	}

	content, err := extractor.Extract(ctx, name, data)
	if err != nil {
		return nil, err
	}

	if content.Title == "" {
		content.Title = titleFromName(name)
	}

	r.logger.Debug("extracted content", "mimeType", normalized, "name", name, "segments", len(content.Segments))
	return content, nil
}

// titleFromName derives a display title from a file name or URL path.
func titleFromName(name string) string {
	base := path.Base(strings.TrimRight(name, "/"))
	if base == "." || base == "/" || base == "" {
		return name
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

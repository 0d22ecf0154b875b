package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// htmlExtractor cleans up an HTML document and converts the main content
// to markdown. Chrome elements (scripts, styles, navigation, footers) are
// dropped before conversion so only readable prose survives.
type htmlExtractor struct {
	converter *md.Converter
}

func newHTMLExtractor() *htmlExtractor {
	return &htmlExtractor{converter: md.NewConverter("", true, nil)}
}

func (e *htmlExtractor) Extract(ctx context.Context, name string, data []byte) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	title := htmlTitle(doc)

	doc.Find("script, style, nav, footer, header, aside, noscript").Remove()

	content := doc.Find("main, article, #content, #main").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, fmt.Errorf("rendering html fragment: %w", err)
	}

	markdown, err := e.converter.ConvertString(fragment)
	if err != nil {
		// Fall back to the bare text nodes when conversion chokes.
		markdown = content.Text()
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, ErrEmptyContent
	}

	return &Content{
		Title:    title,
		Segments: []Segment{{Text: markdown}},
	}, nil
}

func htmlTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if ogTitle, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if ogTitle = strings.TrimSpace(ogTitle); ogTitle != "" {
			return ogTitle
		}
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return ""
}

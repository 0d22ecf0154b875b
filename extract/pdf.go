package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfExtractor pulls text out of PDFs page by page using pdfcpu. The
// pdfcpu api operates on files, so bytes are staged through a temp dir.
type pdfExtractor struct {
	conf *model.Configuration
}

func newPDFExtractor() *pdfExtractor {
	return &pdfExtractor{conf: model.NewDefaultConfiguration()}
}

func (e *pdfExtractor) Extract(ctx context.Context, name string, data []byte) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "respondit-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("creating pdf work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfFile := filepath.Join(workDir, "source.pdf")
	if err := os.WriteFile(pdfFile, data, 0o600); err != nil {
		return nil, fmt.Errorf("staging pdf: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(pdfFile)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(workDir, "pages")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating pdf page dir: %w", err)
	}

	if err := api.ExtractContentFile(pdfFile, outDir, nil, e.conf); err != nil {
		return nil, fmt.Errorf("extracting pdf content: %w", err)
	}

	pageTexts := readPageFiles(outDir)

	segments := make([]Segment, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := strings.TrimSpace(pageTexts[pageNum])
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Label: fmt.Sprintf("page %d", pageNum),
			Text:  text,
		})
	}

	if len(segments) == 0 {
		return nil, ErrEmptyContent
	}

	return &Content{Segments: segments}, nil
}

// readPageFiles maps page numbers to extracted text. pdfcpu names its
// output Content_page_N or page_N depending on version.
func readPageFiles(dir string) map[int]string {
	pageTexts := make(map[int]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return pageTexts
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(entry.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = string(content)
	}

	return pageTexts
}

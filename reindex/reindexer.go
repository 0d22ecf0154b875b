// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/storage"
)

var (
	// ErrRepositoryRequired indicates no document repository was provided.
	ErrRepositoryRequired = errors.New("document repository is required")

	// ErrIngestorRequired indicates no ingestion pipeline was provided.
	ErrIngestorRequired = errors.New("ingestor is required")
)

// URLIngestor re-fetches and indexes a URL-sourced document.
type URLIngestor interface {
	IngestURL(ctx context.Context, url string) (*core.Document, error)
}

// Report summarizes a refresh run.
type Report struct {
	// Scanned is the number of documents examined.
	Scanned int
	// Refreshed is the number of documents re-fetched and re-indexed.
	Refreshed int
	// Skipped counts documents that cannot be refreshed: file uploads,
	// whose bytes are not retained, and documents not yet indexed.
	Skipped int
	// Failed counts documents whose refresh errored. Their previous
	// records are rolled back by the pipeline's failure handling.
	Failed int
}

// Reindexer walks the document store and re-ingests every refreshable
// document through the pipeline, replacing its index records.
type Reindexer struct {
	documents      storage.DocumentRepository
	ingestor       URLIngestor
	progress       *ProgressTracker
	progressWriter io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Reindexer.
type Option func(*Reindexer)

// WithProgress enables progress reporting to writer every reportInterval
// documents.
func WithProgress(writer io.Writer, reportInterval int) Option {
	return func(r *Reindexer) {
		r.progressWriter = writer
		r.reportInterval = reportInterval
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) {
		r.logger = logger.With("component", "reindexer")
	}
}

// NewReindexer creates a Reindexer.
func NewReindexer(documents storage.DocumentRepository, ingestor URLIngestor, opts ...Option) (*Reindexer, error) {
	if documents == nil {
		return nil, ErrRepositoryRequired
	}
	if ingestor == nil {
		return nil, ErrIngestorRequired
	}

	r := &Reindexer{
		documents: documents,
		ingestor:  ingestor,
		logger:    slog.Default().With("component", "reindexer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run refreshes every refreshable document. Failures are counted and
// logged per document; the run continues past them. The context cancels
// the walk between documents.
func (r *Reindexer) Run(ctx context.Context) (*Report, error) {
	documents, err := r.documents.ListDocuments(ctx, 0)
	if err != nil {
		return nil, err
	}

	if r.progressWriter != nil {
		r.progress = NewProgressTracker(r.progressWriter, len(documents), r.reportInterval)
		r.progress.Start()
		defer r.progress.Finish()
	}

	report := &Report{}
	for _, document := range documents {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Scanned++
		r.refreshOne(ctx, document, report)
		if r.progress != nil {
			r.progress.Increment(1)
		}
	}

	r.logger.Info("refresh complete",
		"scanned", report.Scanned,
		"refreshed", report.Refreshed,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

func (r *Reindexer) refreshOne(ctx context.Context, document *core.Document, report *Report) {
	if document.Source.Kind != core.SourceURL || document.Status != core.StatusIndexed {
		report.Skipped++
		return
	}

	if _, err := r.ingestor.IngestURL(ctx, document.Source.Ref); err != nil {
		report.Failed++
		r.logger.Error("failed to refresh document",
			"document_id", document.ID,
			"url", document.Source.Ref,
			"error", err)
		return
	}
	report.Refreshed++
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/respondit/chunk"
	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/extract"
	"github.com/poiesic/respondit/index"
	"github.com/poiesic/respondit/storage"
)

// Orchestrator runs the ingestion pipeline for one document at a time per
// call. Calls are independent; the orchestrator may be shared across
// goroutines.
type Orchestrator struct {
	documents       storage.DocumentRepository
	registry        *extract.Registry
	fetcher         *extract.Fetcher
	chunker         *chunk.Chunker
	embedder        Embedder
	gateway         index.Gateway
	modelVersion    string
	upsertBatchSize int
	logger          *slog.Logger
}

// Embedder is the slice of the AI client the orchestrator needs.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithUpsertBatchSize sets how many index records are written per upsert
// call. Default is 64.
func WithUpsertBatchSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		o.upsertBatchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewOrchestrator creates an ingestion orchestrator. modelVersion labels
// every index record with the embedding model that produced its vector.
func NewOrchestrator(
	documents storage.DocumentRepository,
	registry *extract.Registry,
	chunker *chunk.Chunker,
	embedder Embedder,
	gateway index.Gateway,
	modelVersion string,
	opts ...Option,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}

	o := &Orchestrator{
		documents:       documents,
		registry:        registry,
		fetcher:         extract.NewFetcher(registry),
		chunker:         chunker,
		embedder:        embedder,
		gateway:         gateway,
		modelVersion:    modelVersion,
		upsertBatchSize: 64,
		logger:          slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Ingest runs the full pipeline for raw document bytes. id must be stable
// for the logical document: re-ingesting the same id replaces its records
// instead of adding to them.
func (o *Orchestrator) Ingest(ctx context.Context, id core.DocumentID, source core.DocumentSource, mimeType, title string, data []byte) (*core.Document, error) {
	content, err := o.registry.Extract(ctx, mimeType, source.Ref, data)
	if err != nil {
		// Nothing has been persisted yet; no document to fail.
		return nil, err
	}

	return o.ingestContent(ctx, id, source, mimeType, title, content)
}

// IngestURL fetches a URL and ingests whatever comes back. The document
// ID is derived from the URL, so re-submitting a link refreshes its
// records.
func (o *Orchestrator) IngestURL(ctx context.Context, url string) (*core.Document, error) {
	content, mimeType, err := o.fetcher.FromURL(ctx, url)
	if err != nil {
		return nil, err
	}

	id := core.DocumentIDFromURL(url)
	source := core.DocumentSource{Kind: core.SourceURL, Ref: url}
	return o.ingestContent(ctx, id, source, mimeType, content.Title, content)
}

func (o *Orchestrator) ingestContent(ctx context.Context, id core.DocumentID, source core.DocumentSource, mimeType, title string, content *extract.Content) (*core.Document, error) {
	if title == "" {
		title = content.Title
	}
	if title == "" {
		title = source.Ref
	}

	document := &core.Document{
		ID:       id,
		Source:   source,
		MimeType: mimeType,
		Title:    title,
		Status:   core.StatusPending,
	}
	document, err := o.documents.PutDocument(ctx, document)
	if err != nil {
		return nil, err
	}

	// Re-ingestion path: clear any records from a previous run of this
	// document before writing new ones.
	if deleted, err := o.gateway.DeleteByDocument(ctx, id); err != nil {
		return nil, o.fail(ctx, document, fmt.Errorf("clearing prior records: %w", err))
	} else if deleted > 0 {
		o.logger.Info("replaced prior records", "documentID", id, "count", deleted)
	}

	document, err = o.advance(ctx, document, core.StatusChunking)
	if err != nil {
		return nil, err
	}

	chunks, err := o.chunker.Chunk(content, id)
	if err != nil {
		return nil, o.fail(ctx, document, err)
	}
	if len(chunks) == 0 {
		return nil, o.fail(ctx, document, fmt.Errorf("%w: %s", ErrNoContent, id))
	}
	if err := o.documents.SetChunkCount(ctx, id, len(chunks)); err != nil {
		return nil, o.fail(ctx, document, err)
	}

	document, err = o.advance(ctx, document, core.StatusEmbedding)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := o.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, o.fail(ctx, document, err)
	}

	records := make([]*core.IndexRecord, len(chunks))
	for i, c := range chunks {
		records[i] = &core.IndexRecord{
			ChunkID:      c.ID,
			DocumentID:   id,
			Title:        title,
			Source:       source.Ref,
			Text:         c.Text,
			Vector:       vectors[i],
			Sequence:     c.Sequence,
			Label:        c.Metadata.Label,
			ModelVersion: o.modelVersion,
		}
	}

	for start := 0; start < len(records); start += o.upsertBatchSize {
		end := start + o.upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := o.gateway.Upsert(ctx, records[start:end]); err != nil {
			return nil, o.fail(ctx, document, err)
		}
	}

	document, err = o.advance(ctx, document, core.StatusIndexed)
	if err != nil {
		return nil, err
	}

	o.logger.Info("document indexed",
		"documentID", id, "title", title, "chunks", len(chunks), "modelVersion", o.modelVersion)
	return document, nil
}

// advance moves the document to the next status. A failure here fails
// the document like any other stage failure.
func (o *Orchestrator) advance(ctx context.Context, document *core.Document, next core.IngestionStatus) (*core.Document, error) {
	updated, err := o.documents.UpdateStatus(ctx, document.ID, next)
	if err != nil {
		return nil, o.fail(ctx, document, err)
	}
	return updated, nil
}

// fail marks the document failed and removes whatever records made it
// into the index, then returns cause. The single cause is what the user
// sees; rollback problems are logged, never surfaced in its place.
func (o *Orchestrator) fail(ctx context.Context, document *core.Document, cause error) error {
	o.logger.Error("ingestion failed", "documentID", document.ID, "status", document.Status, "err", cause)

	if _, err := o.documents.UpdateStatus(ctx, document.ID, core.StatusFailed); err != nil {
		o.logger.Error("marking document failed", "documentID", document.ID, "err", err)
	}

	if deleted, err := o.gateway.DeleteByDocument(ctx, document.ID); err != nil {
		o.logger.Error("rollback failed, partial records may remain",
			"documentID", document.ID, "err", err)
	} else if deleted > 0 {
		o.logger.Info("rolled back partial records", "documentID", document.ID, "count", deleted)
	}

	return cause
}

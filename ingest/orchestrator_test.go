package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/ai/mock"
	"github.com/poiesic/respondit/chunk"
	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/extract"
	"github.com/poiesic/respondit/index"
	indexbadger "github.com/poiesic/respondit/index/badger"
	"github.com/poiesic/respondit/storage"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

// flakyGateway fails Upsert after a set number of successful calls, to
// simulate an index falling over mid-ingestion.
type flakyGateway struct {
	index.Gateway
	failAfter int
	upserts   int
}

func (g *flakyGateway) Upsert(ctx context.Context, records []*core.IndexRecord) error {
	g.upserts++
	if g.upserts > g.failAfter {
		return index.ErrUnavailable
	}
	return g.Gateway.Upsert(ctx, records)
}

type fixture struct {
	repo      storage.DocumentRepository
	gateway   index.Gateway
	embedder  *mock.MockEmbedder
	registry  *extract.Registry
	chunkerFn *chunk.Chunker
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	repo, err := storagebadger.NewDocumentRepository(backend)
	require.NoError(t, err)

	gateway, err := indexbadger.NewGateway(backend)
	require.NoError(t, err)

	chunker, err := chunk.NewChunker(chunk.WordCounter{}, chunk.Params{MaxTokens: 16, OverlapTokens: 4})
	require.NoError(t, err)

	return &fixture{
		repo:      repo,
		gateway:   gateway,
		embedder:  mock.NewMockEmbedder(),
		registry:  extract.NewRegistry(),
		chunkerFn: chunker,
	}
}

func newOrchestrator(t *testing.T, f *fixture, gateway index.Gateway, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(f.repo, f.registry, f.chunkerFn, f.embedder, gateway, "mock-embed-v1", opts...)
	require.NoError(t, err)
	return o
}

const policyText = "Remote work is allowed two days per week. " +
	"Office attendance is required on Mondays. " +
	"All employees must complete security training annually. " +
	"Expense reports are due on the first of each month. " +
	"Travel must be approved by a manager in advance."

func TestIngestRoundTrip(t *testing.T) {
	f := setup(t)
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "policy-a.txt"}
	document, err := o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(policyText))
	require.NoError(t, err)

	assert.Equal(t, core.StatusIndexed, document.Status)
	assert.Greater(t, document.ChunkCount, 1)

	// A chunk's own text must retrieve that chunk at the top.
	hits, err := f.gateway.Query(ctx,
		mock.DeterministicVector("Remote work is allowed two days per week. Office attendance is required on Mondays.", mock.Dim),
		3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, core.DocumentID("doc-policy"), hits[0].Record.DocumentID)
	assert.Contains(t, hits[0].Record.Text, "Remote work")
	assert.Equal(t, "Policy A", hits[0].Record.Title)
	assert.Equal(t, "mock-embed-v1", hits[0].Record.ModelVersion)
}

func TestIngestUpsertFailureRollsBack(t *testing.T) {
	f := setup(t)
	flaky := &flakyGateway{Gateway: f.gateway, failAfter: 1}
	o := newOrchestrator(t, f, flaky, WithUpsertBatchSize(1))
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "policy-a.txt"}
	_, err := o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(policyText))
	require.ErrorIs(t, err, index.ErrUnavailable)

	// The first batch was committed before the failure; rollback must
	// leave zero records for the document.
	hits, err := f.gateway.Query(ctx, mock.DeterministicVector("Remote work", mock.Dim), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	document, err := f.repo.GetDocument(ctx, "doc-policy")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, document.Status)
}

func TestIngestEmbeddingFailureRollsBack(t *testing.T) {
	f := setup(t)
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "policy-a.txt"}
	_, err := o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(policyText))
	require.Error(t, err)

	document, err := f.repo.GetDocument(ctx, "doc-policy")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, document.Status)
}

// statusFailRepo fails one targeted status transition while letting the
// failure marking itself go through.
type statusFailRepo struct {
	storage.DocumentRepository
	failOn core.IngestionStatus
}

func (r *statusFailRepo) UpdateStatus(ctx context.Context, id core.DocumentID, next core.IngestionStatus) (*core.Document, error) {
	if next == r.failOn {
		return nil, errors.New("status store unavailable")
	}
	return r.DocumentRepository.UpdateStatus(ctx, id, next)
}

func TestIngestStatusUpdateFailureMarksFailed(t *testing.T) {
	f := setup(t)
	repo := &statusFailRepo{DocumentRepository: f.repo, failOn: core.StatusEmbedding}
	o, err := NewOrchestrator(repo, f.registry, f.chunkerFn, f.embedder, f.gateway, "mock-embed-v1")
	require.NoError(t, err)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "policy-a.txt"}
	_, err = o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(policyText))
	require.Error(t, err)

	document, err := f.repo.GetDocument(ctx, "doc-policy")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, document.Status)
}

func TestIngestURLRecordsFetchedType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(policyText))
	}))
	defer server.Close()

	f := setup(t)
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	document, err := o.IngestURL(ctx, server.URL+"/handbook")
	require.NoError(t, err)

	assert.Equal(t, "text/plain", document.MimeType)
	assert.Equal(t, core.StatusIndexed, document.Status)
	assert.Equal(t, core.SourceURL, document.Source.Kind)
}

func TestIngestUnsupportedType(t *testing.T) {
	f := setup(t)
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "archive.zip"}
	_, err := o.Ingest(ctx, "doc-zip", source, "application/zip", "", []byte{0x50, 0x4b})
	require.ErrorIs(t, err, extract.ErrUnsupportedType)

	// Nothing was persisted for the rejected document.
	_, err = f.repo.GetDocument(ctx, "doc-zip")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	f := setup(t)
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "empty.txt"}
	_, err := o.Ingest(ctx, "doc-empty", source, "text/plain", "", []byte("   "))
	assert.ErrorIs(t, err, extract.ErrEmptyContent)
}

func TestReingestReplacesRecords(t *testing.T) {
	f := setup(t)
	o := newOrchestrator(t, f, f.gateway)
	ctx := context.Background()

	source := core.DocumentSource{Kind: core.SourceFile, Ref: "policy-a.txt"}

	first, err := o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(policyText))
	require.NoError(t, err)

	shorter := "Remote work is allowed every day now."
	second, err := o.Ingest(ctx, "doc-policy", source, "text/plain", "Policy A", []byte(shorter))
	require.NoError(t, err)
	assert.Less(t, second.ChunkCount, first.ChunkCount)

	// Only the second version's records remain.
	hits, err := f.gateway.Query(ctx, mock.DeterministicVector(shorter, mock.Dim), 50, nil)
	require.NoError(t, err)
	require.Len(t, hits, second.ChunkCount)
	for _, hit := range hits {
		assert.NotContains(t, hit.Record.Text, "security training")
	}
}

func TestNewOrchestratorValidation(t *testing.T) {
	f := setup(t)

	_, err := NewOrchestrator(nil, f.registry, f.chunkerFn, f.embedder, f.gateway, "v1")
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewOrchestrator(f.repo, nil, f.chunkerFn, f.embedder, f.gateway, "v1")
	assert.ErrorIs(t, err, ErrRegistryRequired)

	_, err = NewOrchestrator(f.repo, f.registry, nil, f.embedder, f.gateway, "v1")
	assert.ErrorIs(t, err, ErrChunkerRequired)

	_, err = NewOrchestrator(f.repo, f.registry, f.chunkerFn, nil, f.gateway, "v1")
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewOrchestrator(f.repo, f.registry, f.chunkerFn, f.embedder, nil, "v1")
	assert.ErrorIs(t, err, ErrGatewayRequired)
}

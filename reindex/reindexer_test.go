package reindex

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/core"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

type scriptedIngestor struct {
	calls   []string
	failFor map[string]error
}

func (s *scriptedIngestor) IngestURL(ctx context.Context, url string) (*core.Document, error) {
	s.calls = append(s.calls, url)
	if err, ok := s.failFor[url]; ok {
		return nil, err
	}
	return &core.Document{ID: core.DocumentIDFromURL(url), Status: core.StatusIndexed}, nil
}

func putDocument(t *testing.T, repo interface {
	PutDocument(ctx context.Context, document *core.Document) (*core.Document, error)
}, id string, kind core.SourceKind, ref string, status core.IngestionStatus) {
	t.Helper()
	_, err := repo.PutDocument(context.Background(), &core.Document{
		ID:     core.DocumentID(id),
		Title:  id,
		Source: core.DocumentSource{Kind: kind, Ref: ref},
		Status: status,
	})
	require.NoError(t, err)
}

func TestRunRefreshesIndexedURLDocuments(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	putDocument(t, repo, "url-a", core.SourceURL, "https://example.com/a", core.StatusIndexed)
	putDocument(t, repo, "url-b", core.SourceURL, "https://example.com/b", core.StatusIndexed)
	putDocument(t, repo, "file-c", core.SourceFile, "c.pdf", core.StatusIndexed)
	putDocument(t, repo, "url-d", core.SourceURL, "https://example.com/d", core.StatusFailed)

	ingestor := &scriptedIngestor{}
	reindexer, err := NewReindexer(repo, ingestor)
	require.NoError(t, err)

	report, err := reindexer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Refreshed)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, ingestor.calls)
}

func TestRunContinuesPastFailures(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	putDocument(t, repo, "url-a", core.SourceURL, "https://example.com/a", core.StatusIndexed)
	putDocument(t, repo, "url-b", core.SourceURL, "https://example.com/b", core.StatusIndexed)

	ingestor := &scriptedIngestor{
		failFor: map[string]error{"https://example.com/a": fmt.Errorf("gone")},
	}
	reindexer, err := NewReindexer(repo, ingestor)
	require.NoError(t, err)

	report, err := reindexer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Refreshed)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, ingestor.calls, 2)
}

func TestRunEmptyStore(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	reindexer, err := NewReindexer(repo, &scriptedIngestor{})
	require.NoError(t, err)

	report, err := reindexer.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestRunCancelled(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	putDocument(t, repo, "url-a", core.SourceURL, "https://example.com/a", core.StatusIndexed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reindexer, err := NewReindexer(repo, &scriptedIngestor{})
	require.NoError(t, err)

	_, err = reindexer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReindexerValidation(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewReindexer(nil, &scriptedIngestor{})
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReindexer(repo, nil)
	assert.ErrorIs(t, err, ErrIngestorRequired)
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5)
	tracker.Start()

	tracker.Increment(5)
	tracker.Increment(5)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "10/10")
	assert.Contains(t, output, "100.0%")
	assert.True(t, strings.HasSuffix(output, "\n"))
	assert.Less(t, tracker.Elapsed(), time.Minute)
}

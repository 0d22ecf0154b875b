package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/core"
)

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	original := &core.Document{
		ID:         "F012ABCDEF",
		Source:     core.DocumentSource{Kind: core.SourceFile, Ref: "handbook.pdf"},
		MimeType:   "application/pdf",
		Title:      "Team Handbook",
		Status:     core.StatusEmbedding,
		ChunkCount: 12,
		InsertedAt: now.Add(-time.Hour),
		UpdatedAt:  now,
	}

	restored, err := UnmarshalDocument(MarshalDocument(original))
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestDocumentTimestampPrecision(t *testing.T) {
	// Sub-microsecond precision is dropped on the wire.
	original := &core.Document{
		ID:         "doc",
		Source:     core.DocumentSource{Kind: core.SourceURL, Ref: "https://example.com"},
		Status:     core.StatusPending,
		InsertedAt: time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC),
		UpdatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC),
	}

	restored, err := UnmarshalDocument(MarshalDocument(original))
	require.NoError(t, err)
	assert.Equal(t, original.InsertedAt.Truncate(time.Microsecond), restored.InsertedAt)
}

func TestIndexRecordRoundTrip(t *testing.T) {
	original := &core.IndexRecord{
		ChunkID:      "chunk-1",
		DocumentID:   "doc-1",
		Title:        "Policy A",
		Source:       "policy-a.txt",
		Text:         "Remote work is allowed two days per week.",
		Vector:       []float32{0.25, -0.5, 0.125, 1.0},
		Sequence:     3,
		Label:        "page 2",
		ModelVersion: "nomic-embed-text",
	}

	restored, err := UnmarshalIndexRecord(MarshalIndexRecord(original))
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestIndexRecordEmptyVector(t *testing.T) {
	original := &core.IndexRecord{ChunkID: "c", DocumentID: "d"}

	restored, err := UnmarshalIndexRecord(MarshalIndexRecord(original))
	require.NoError(t, err)
	assert.Empty(t, restored.Vector)
}

func TestUnmarshalTruncatedData(t *testing.T) {
	data := MarshalDocument(&core.Document{
		ID:     "doc",
		Source: core.DocumentSource{Kind: core.SourceFile, Ref: "a.txt"},
		Status: core.StatusPending,
	})

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

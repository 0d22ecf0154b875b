package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/core"
)

func scored(score float32, sequence int) *core.ScoredRecord {
	return &core.ScoredRecord{
		Record: &core.IndexRecord{
			ChunkID:    core.ChunkIDFor("doc-1", sequence),
			DocumentID: "doc-1",
			Sequence:   sequence,
		},
		Score: score,
	}
}

func sequences(results []*core.ScoredRecord) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Record.Sequence
	}
	return out
}

func TestSortByScore(t *testing.T) {
	t.Run("score descending", func(t *testing.T) {
		results := []*core.ScoredRecord{scored(0.2, 0), scored(0.9, 1), scored(0.5, 2)}
		sortByScore(results)
		assert.Equal(t, []int{1, 2, 0}, sequences(results))
	})

	t.Run("three-way tie orders by sequence", func(t *testing.T) {
		results := []*core.ScoredRecord{scored(0.7, 3), scored(0.7, 2), scored(0.7, 1)}
		sortByScore(results)
		assert.Equal(t, []int{1, 2, 3}, sequences(results))
	})

	t.Run("tie among higher scores keeps lower scores below", func(t *testing.T) {
		results := []*core.ScoredRecord{scored(0.3, 0), scored(0.8, 5), scored(0.8, 4)}
		sortByScore(results)
		assert.Equal(t, []int{4, 5, 0}, sequences(results))
	})
}

func TestPointIDRoundTrip(t *testing.T) {
	id := core.ChunkIDFor("doc-1", 7)

	point, err := pointID(id)
	require.NoError(t, err)
	assert.NotNil(t, point.GetNum())

	_, err = pointID("not-hex")
	assert.Error(t, err)
}

func TestRecordPayloadRoundTrip(t *testing.T) {
	record := &core.IndexRecord{
		ChunkID:      core.ChunkIDFor("doc-1", 2),
		DocumentID:   "doc-1",
		Title:        "Policy A",
		Source:       "policy-a.txt",
		Text:         "Remote work is allowed two days per week.",
		Sequence:     2,
		Label:        "page 1",
		ModelVersion: "embed-v1",
	}

	got := recordFromPayload(recordPayload(record))
	assert.Equal(t, record, got)
}

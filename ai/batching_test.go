package ai_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/ai"
	"github.com/poiesic/respondit/ai/mock"
)

func batchingConfig(batchSize int) *ai.Config {
	config := ai.DefaultConfig()
	config.BatchSize = batchSize
	config.MaxAttempts = 3
	config.RetryBaseDelay = time.Millisecond
	return config
}

func TestBatchingEmbedderPreservesOrder(t *testing.T) {
	inner := mock.NewMockEmbedder()

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(2))
	require.NoError(t, err)
	defer embedder.Release()

	texts := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	vectors, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// BatchSize 2 forces three sub-batches, issued concurrently. The
	// returned vectors must still line up with the input positions.
	assert.Equal(t, 3, inner.CallCount())
	for i, text := range texts {
		assert.Equal(t, mock.DeterministicVector(text, mock.Dim), vectors[i], "vector %d", i)
	}
}

func TestBatchingEmbedderSplitsBatches(t *testing.T) {
	inner := mock.NewMockEmbedder()

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(3))
	require.NoError(t, err)
	defer embedder.Release()

	texts := []string{"a", "b", "c", "d"}
	_, err = embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	batches := inner.Batches()
	require.Len(t, batches, 2)

	seen := 0
	for _, batch := range batches {
		assert.LessOrEqual(t, len(batch), 3)
		seen += len(batch)
	}
	assert.Equal(t, len(texts), seen)
}

func TestBatchingEmbedderEmptyInput(t *testing.T) {
	inner := mock.NewMockEmbedder()

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(16))
	require.NoError(t, err)
	defer embedder.Release()

	vectors, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, inner.CallCount())
}

func TestBatchingEmbedderRetriesTransientFailures(t *testing.T) {
	inner := mock.NewMockEmbedder()

	failures := 2
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if failures > 0 {
			failures--
			return nil, fmt.Errorf("%w: 503", ai.ErrEmbeddingUnavailable)
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, mock.Dim)
		}
		return vectors, nil
	}

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(16))
	require.NoError(t, err)
	defer embedder.Release()

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, 3, inner.CallCount())
}

func TestBatchingEmbedderExhaustedRetries(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: connection refused", ai.ErrEmbeddingUnavailable)
	}

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(16))
	require.NoError(t, err)
	defer embedder.Release()

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
	assert.Nil(t, vectors)
	assert.Equal(t, 3, inner.CallCount())
}

func TestBatchingEmbedderRejectionAborts(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: input too long", ai.ErrEmbeddingRejected)
	}

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(16))
	require.NoError(t, err)
	defer embedder.Release()

	_, err = embedder.EmbedTexts(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingRejected)
	assert.Equal(t, 1, inner.CallCount())
}

func TestBatchingEmbedderResultCountMismatch(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{}, nil
	}

	embedder, err := ai.NewBatchingEmbedder(inner, batchingConfig(16))
	require.NoError(t, err)
	defer embedder.Release()

	_, err = embedder.EmbedTexts(context.Background(), []string{"hello", "world"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
}

func TestBatchingEmbedderRequiresInner(t *testing.T) {
	_, err := ai.NewBatchingEmbedder(nil, batchingConfig(16))
	assert.ErrorIs(t, err, ai.ErrEmbedderRequired)
}

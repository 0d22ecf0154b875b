package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// BatchingEmbedder wraps an Embedder with the batching and retry policy the
// external embedding service requires. Inputs larger than the service's
// batch-size limit are split into sub-batches, issued concurrently on a
// bounded worker pool, and reassembled in input order before returning.
//
// This is the system's sole throttle against external rate limits:
// transient sub-batch failures are retried with exponential backoff; after
// exhaustion the whole call fails with ErrEmbeddingUnavailable and no
// partial vector set is returned.
type BatchingEmbedder struct {
	inner       Embedder
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	pool        *ants.Pool
	logger      *slog.Logger
}

var _ Embedder = (*BatchingEmbedder)(nil)

// NewBatchingEmbedder creates a batching wrapper around inner using the
// config's BatchSize, MaxAttempts and RetryBaseDelay.
func NewBatchingEmbedder(inner Embedder, config *Config) (*BatchingEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// A small pool is enough: sub-batches exist to respect the service's
	// batch limit, not to maximize parallelism against its rate limit.
	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, err
	}

	return &BatchingEmbedder{
		inner:       inner,
		batchSize:   config.BatchSize,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.RetryBaseDelay,
		pool:        pool,
		logger:      slog.Default().With("component", "batching-embedder"),
	}, nil
}

// EmbedTexts generates embeddings for texts, preserving input order 1:1
// regardless of how the request is split internally.
func (b *BatchingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		offset := start
		batch := texts[start:end]

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()

			var vectors [][]float32
			err := RetryWithBackoff(ctx, func() error {
				var embedErr error
				vectors, embedErr = b.inner.EmbedTexts(ctx, batch)
				return embedErr
			}, b.maxAttempts, b.baseDelay)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if len(vectors) != len(batch) {
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: batch result mismatch, expected %d vectors, received %d",
						ErrEmbeddingUnavailable, len(batch), len(vectors))
				}
				return
			}
			copy(results[offset:], vectors)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		b.logger.Error("embedding batch failed", "texts", len(texts), "err", firstErr)
		return nil, firstErr
	}

	return results, nil
}

// Release releases the internal worker pool. The embedder should not be
// used after calling Release.
func (b *BatchingEmbedder) Release() {
	b.pool.Release()
}

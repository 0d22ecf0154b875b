package index

import (
	"context"

	"github.com/poiesic/respondit/core"
)

// Filter narrows a query to a subset of records. Zero-value fields are
// ignored.
type Filter struct {
	DocumentID   core.DocumentID
	ModelVersion string
}

// Gateway is the vector index surface. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// Upsert writes records keyed by ChunkID; writing an existing ID
	// replaces the record, so re-ingestion is idempotent. A partially
	// committed batch returns *PartialError.
	Upsert(ctx context.Context, records []*core.IndexRecord) error

	// Query returns the k records most similar to vector, ordered by
	// score descending with ties broken by Sequence ascending.
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]*core.ScoredRecord, error)

	// DeleteByDocument removes every record belonging to a document and
	// returns how many were removed. Deleting an absent document is not
	// an error.
	DeleteByDocument(ctx context.Context, id core.DocumentID) (int, error)

	// Close releases the connection or database handle.
	Close() error
}

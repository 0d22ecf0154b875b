package storage

import (
	"context"

	"github.com/poiesic/respondit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records and
// their ingestion lifecycle.
type DocumentRepository interface {
	Repository

	// PutDocument inserts or replaces a document record.
	// Sets InsertedAt on first write and always refreshes UpdatedAt.
	// Returns the stored document with timestamps populated.
	PutDocument(ctx context.Context, document *core.Document) (*core.Document, error)

	// UpdateStatus moves a document to the next ingestion status.
	// Returns ErrNotFound if the document doesn't exist and
	// ErrStatusConflict if the transition violates the monotonic rules.
	UpdateStatus(ctx context.Context, id core.DocumentID, next core.IngestionStatus) (*core.Document, error)

	// SetChunkCount records the number of chunks produced for a document.
	SetChunkCount(ctx context.Context, id core.DocumentID, count int) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error)

	// ListDocuments retrieves all documents, ordered by ID.
	// Returns up to limit documents; limit <= 0 means no limit.
	ListDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.DocumentID) error
}

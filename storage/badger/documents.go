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


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the underlying backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// storedNow returns the current time at the precision the serialized
// record keeps, so a returned document equals its stored form.
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// PutDocument inserts or replaces a document record.
func (r *DocumentRepository) PutDocument(ctx context.Context, document *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(document); err != nil {
		return nil, err
	}

	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(document.ID)

		now := storedNow()
		existing, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			document.InsertedAt = existing.InsertedAt
		} else {
			document.InsertedAt = now
		}
		document.UpdatedAt = now

		return tx.Set(key, storage.MarshalDocument(document))
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// UpdateStatus moves a document to the next ingestion status, enforcing
// the monotonic transition rules inside one transaction so concurrent
// updaters cannot interleave an illegal step.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id core.DocumentID, next core.IngestionStatus) (*core.Document, error) {
	var updated *core.Document

	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		document, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if document == nil {
			return storage.ErrNotFound
		}

		if !document.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s for document %s",
				storage.ErrStatusConflict, document.Status, next, id)
		}

		document.Status = next
		document.UpdatedAt = storedNow()

		if err := tx.Set(key, storage.MarshalDocument(document)); err != nil {
			return err
		}
		updated = document
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetChunkCount records the number of chunks produced for a document.
func (r *DocumentRepository) SetChunkCount(ctx context.Context, id core.DocumentID, count int) error {
	return r.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		document, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if document == nil {
			return storage.ErrNotFound
		}

		document.ChunkCount = count
		document.UpdatedAt = storedNow()

		return tx.Set(key, storage.MarshalDocument(document))
	})
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error) {
	var document *core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		document, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, storage.ErrNotFound
	}

	return document, nil
}

// ListDocuments retrieves all documents, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var documents []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = documentScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(documents) >= limit {
				break
			}

			err := iter.Item().Value(func(val []byte) error {
				document, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				documents = append(documents, document)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return documents, nil
}

// DeleteDocument removes a document record.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.DocumentID) error {
	return r.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return tx.Delete(key)
	})
}

// readDocument reads and unmarshals a document, returning nil when the
// key does not exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var document *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		document, err = storage.UnmarshalDocument(val)
		return err
	})
	return document, err
}

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/index"
	"github.com/poiesic/respondit/storage"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

// Key prefixes for index records and the per-document secondary index.
const (
	recordPrefix   = "idxrec"
	documentPrefix = "idxdoc"
)

// Gateway implements index.Gateway on an embedded BadgerDB. Queries scan
// all records and rank by cosine similarity; fine for corpus sizes a
// single node answers for.
type Gateway struct {
	backend *storagebadger.Backend
	logger  *slog.Logger
}

var _ index.Gateway = (*Gateway)(nil)

// NewGateway creates a gateway over backend. The backend may be shared
// with the document repository; key prefixes keep the spaces disjoint.
func NewGateway(backend *storagebadger.Backend) (*Gateway, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", index.ErrRejected)
	}
	return &Gateway{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}, nil
}

// Close is a no-op; the shared backend owns the database handle.
func (g *Gateway) Close() error {
	return nil
}

func makeRecordKey(id core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%s", recordPrefix, id))
}

func makeDocumentIndexKey(docID core.DocumentID, chunkID core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, docID, chunkID))
}

// Upsert writes records and their document index entries in one
// transaction; either all records commit or none do.
func (g *Gateway) Upsert(ctx context.Context, records []*core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := g.backend.Update(func(tx *badgerdb.Txn) error {
		for _, record := range records {
			if err := tx.Set(makeRecordKey(record.ChunkID), storage.MarshalIndexRecord(record)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentIndexKey(record.DocumentID, record.ChunkID), []byte(record.ChunkID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}

	g.logger.Debug("upserted records", "count", len(records))
	return nil
}

// Query scans every record, scores it against vector and returns the
// top k above nothing in particular; score thresholds are the caller's
// concern.
func (g *Gateway) Query(ctx context.Context, vector []float32, k int, filter *index.Filter) ([]*core.ScoredRecord, error) {
	if k <= 0 {
		return []*core.ScoredRecord{}, nil
	}

	var results []*core.ScoredRecord

	err := g.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.IndexRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalIndexRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			if !matchesFilter(record, filter) || len(record.Vector) == 0 {
				continue
			}

			results = append(results, &core.ScoredRecord{
				Record: record,
				Score:  cosineSimilarity(vector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}

	slices.SortFunc(results, func(a, b *core.ScoredRecord) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return a.Record.Sequence - b.Record.Sequence
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteByDocument walks the document index and removes the records it
// points at.
func (g *Gateway) DeleteByDocument(ctx context.Context, id core.DocumentID) (int, error) {
	deleted := 0

	err := g.backend.Update(func(tx *badgerdb.Txn) error {
		prefix := []byte(fmt.Sprintf("%s:%s:", documentPrefix, id))

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)

		var indexKeys [][]byte
		var chunkIDs []core.ChunkID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			indexKeys = append(indexKeys, item.KeyCopy(nil))

			err := item.Value(func(val []byte) error {
				chunkIDs = append(chunkIDs, core.ChunkID(val))
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		for i, chunkID := range chunkIDs {
			if err := tx.Delete(makeRecordKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}

	if deleted > 0 {
		g.logger.Debug("deleted document records", "documentID", id, "count", deleted)
	}
	return deleted, nil
}

func matchesFilter(record *core.IndexRecord, filter *index.Filter) bool {
	if filter == nil {
		return true
	}
	if filter.DocumentID != "" && record.DocumentID != filter.DocumentID {
		return false
	}
	if filter.ModelVersion != "" && record.ModelVersion != filter.ModelVersion {
		return false
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between a and b.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/dedup"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

const claimPrefix = "dedup"

// Guard implements dedup.Guard on an embedded BadgerDB. Claim atomicity
// comes from badger's transaction conflict detection: two concurrent
// claims of the same ID conflict, and the loser observes AlreadyClaimed.
type Guard struct {
	backend   *storagebadger.Backend
	retention time.Duration
	logger    *slog.Logger
}

var _ dedup.Guard = (*Guard)(nil)

// NewGuard creates a guard over backend. retention <= 0 selects
// dedup.DefaultRetention.
func NewGuard(backend *storagebadger.Backend, retention time.Duration) (*Guard, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if retention <= 0 {
		retention = dedup.DefaultRetention
	}
	return &Guard{
		backend:   backend,
		retention: retention,
		logger:    slog.Default().With("component", "badger-dedup"),
	}, nil
}

// Close is a no-op; the shared backend owns the database handle.
func (g *Guard) Close() error {
	return nil
}

func makeClaimKey(id core.EventID) []byte {
	return []byte(fmt.Sprintf("%s:%s", claimPrefix, id))
}

// Claim attempts to take ownership of an event ID.
func (g *Guard) Claim(ctx context.Context, id core.EventID) (dedup.ClaimResult, error) {
	if id == "" {
		return 0, dedup.ErrEmptyEventID
	}

	result := dedup.AlreadyClaimed
	err := g.backend.Update(func(tx *badgerdb.Txn) error {
		key := makeClaimKey(id)

		_, err := tx.Get(key)
		if err == nil {
			return nil // existing claim, result stays AlreadyClaimed
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		entry := dedup.Entry{
			EventID:   id,
			FirstSeen: time.Now().UTC(),
			Outcome:   dedup.OutcomeInProgress,
		}
		e := badgerdb.NewEntry(key, marshalEntry(&entry)).WithTTL(g.retention)
		if err := tx.SetEntry(e); err != nil {
			return err
		}
		result = dedup.Claimed
		return nil
	})
	if err != nil {
		// A commit conflict means a concurrent claimant won the race.
		if errors.Is(err, badgerdb.ErrConflict) {
			return dedup.AlreadyClaimed, nil
		}
		return 0, fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	return result, nil
}

// Release records the processing outcome, preserving the original TTL.
func (g *Guard) Release(ctx context.Context, id core.EventID, outcome dedup.Outcome) error {
	if id == "" {
		return dedup.ErrEmptyEventID
	}

	err := g.backend.Update(func(tx *badgerdb.Txn) error {
		key := makeClaimKey(id)

		item, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return dedup.ErrNotClaimed
			}
			return err
		}

		var entry *dedup.Entry
		if err := item.Value(func(val []byte) error {
			entry, err = unmarshalEntry(val)
			return err
		}); err != nil {
			return err
		}
		entry.Outcome = outcome

		ttl := g.retention
		if expires := item.ExpiresAt(); expires > 0 {
			remaining := time.Until(time.Unix(int64(expires), 0))
			if remaining > 0 {
				ttl = remaining
			}
		}

		return tx.SetEntry(badgerdb.NewEntry(key, marshalEntry(entry)).WithTTL(ttl))
	})
	if err != nil {
		if errors.Is(err, dedup.ErrNotClaimed) {
			return err
		}
		return fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	g.logger.Debug("released claim", "eventID", id, "outcome", outcome)
	return nil
}

// Get returns the stored entry for an event ID.
func (g *Guard) Get(ctx context.Context, id core.EventID) (*dedup.Entry, error) {
	var entry *dedup.Entry

	err := g.backend.WithTx(func(tx *badgerdb.Txn) error {
		item, err := tx.Get(makeClaimKey(id))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return dedup.ErrNotClaimed
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = unmarshalEntry(val)
			return err
		})
	}, false)
	if err != nil {
		if errors.Is(err, dedup.ErrNotClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	return entry, nil
}

func marshalEntry(entry *dedup.Entry) []byte {
	size := ord.String.Size(string(entry.EventID)) +
		varint.Int64.Size(entry.FirstSeen.UnixMicro()) +
		varint.Int.Size(int(entry.Outcome))
	bs := make([]byte, size)

	n := ord.String.Marshal(string(entry.EventID), bs)
	n += varint.Int64.Marshal(entry.FirstSeen.UnixMicro(), bs[n:])
	varint.Int.Marshal(int(entry.Outcome), bs[n:])
	return bs
}

func unmarshalEntry(bs []byte) (*dedup.Entry, error) {
	id, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	micros, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	outcome, _, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, err
	}

	return &dedup.Entry{
		EventID:   core.EventID(id),
		FirstSeen: time.UnixMicro(micros).UTC(),
		Outcome:   dedup.Outcome(outcome),
	}, nil
}

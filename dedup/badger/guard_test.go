package badger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/dedup"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

func setupGuard(t *testing.T) *Guard {
	t.Helper()

	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	guard, err := NewGuard(backend, time.Hour)
	require.NoError(t, err)
	return guard
}

func TestClaimOnce(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	result, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.Claimed, result)

	result, err = guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.AlreadyClaimed, result)

	// A different event is unaffected.
	result, err = guard.Claim(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, dedup.Claimed, result)
}

func TestClaimEmptyID(t *testing.T) {
	guard := setupGuard(t)

	_, err := guard.Claim(context.Background(), "")
	assert.ErrorIs(t, err, dedup.ErrEmptyEventID)
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	const claimants = 32
	var claimed atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			result, err := guard.Claim(ctx, "evt-contested")
			assert.NoError(t, err)
			if result == dedup.Claimed {
				claimed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())
}

func TestReleaseRecordsOutcome(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)

	entry, err := guard.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.OutcomeInProgress, entry.Outcome)
	assert.False(t, entry.FirstSeen.IsZero())

	require.NoError(t, guard.Release(ctx, "evt-1", dedup.OutcomeCompleted))

	entry, err = guard.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.OutcomeCompleted, entry.Outcome)
}

func TestFailedEntryStillBlocks(t *testing.T) {
	guard := setupGuard(t)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "evt-1", dedup.OutcomeFailed))

	// A redelivery of a failed event is still a duplicate.
	result, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.AlreadyClaimed, result)
}

func TestReleaseUnclaimed(t *testing.T) {
	guard := setupGuard(t)

	err := guard.Release(context.Background(), "evt-ghost", dedup.OutcomeCompleted)
	assert.ErrorIs(t, err, dedup.ErrNotClaimed)
}

func TestGetUnclaimed(t *testing.T) {
	guard := setupGuard(t)

	_, err := guard.Get(context.Background(), "evt-ghost")
	assert.ErrorIs(t, err, dedup.ErrNotClaimed)
}

func TestClaimExpires(t *testing.T) {
	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	guard, err := NewGuard(backend, 50*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, dedup.Claimed, result)

	time.Sleep(120 * time.Millisecond)

	// After the retention window the event reads as brand new.
	result, err = guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, dedup.Claimed, result)
}

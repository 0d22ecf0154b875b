package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/dedup"
)

func TestClaimValueRoundTrip(t *testing.T) {
	firstSeen := time.Now().UTC().Truncate(time.Microsecond)

	for _, outcome := range []dedup.Outcome{
		dedup.OutcomeInProgress, dedup.OutcomeCompleted, dedup.OutcomeFailed,
	} {
		decoded, seen, err := decodeValue(encodeValue(outcome, firstSeen))
		require.NoError(t, err)
		assert.Equal(t, outcome, decoded)
		assert.Equal(t, firstSeen, seen)
	}
}

func TestDecodeMalformedValue(t *testing.T) {
	_, _, err := decodeValue("no separator")
	assert.Error(t, err)

	_, _, err = decodeValue("bogus|123")
	assert.Error(t, err)

	_, _, err = decodeValue("completed|not-a-number")
	assert.Error(t, err)
}

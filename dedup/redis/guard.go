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


// Package redis implements the dedup guard on a shared Redis instance,
// the claim store for multi-instance deployments. SET NX with a TTL is
// the atomic claim; every instance pointing at the same Redis agrees on
// who won.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/dedup"
)

const keyPrefix = "respondit:dedup:"

// Guard implements dedup.Guard on Redis.
type Guard struct {
	rdb       *goredis.Client
	retention time.Duration
	logger    *slog.Logger
}

var _ dedup.Guard = (*Guard)(nil)

// NewGuard connects to Redis at addr and verifies the connection.
// retention <= 0 selects dedup.DefaultRetention.
func NewGuard(addr string, retention time.Duration) (*Guard, error) {
	if retention <= 0 {
		retention = dedup.DefaultRetention
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", dedup.ErrStoreUnavailable, err)
	}

	return &Guard{
		rdb:       rdb,
		retention: retention,
		logger:    slog.Default().With("component", "redis-dedup"),
	}, nil
}

// Close closes the Redis connection.
func (g *Guard) Close() error {
	return g.rdb.Close()
}

func makeKey(id core.EventID) string {
	return keyPrefix + string(id)
}

// Claim issues SET key value NX PX retention. Exactly one concurrent
// claimant observes the set succeeding; everyone else gets AlreadyClaimed.
func (g *Guard) Claim(ctx context.Context, id core.EventID) (dedup.ClaimResult, error) {
	if id == "" {
		return 0, dedup.ErrEmptyEventID
	}

	value := encodeValue(dedup.OutcomeInProgress, time.Now().UTC())
	ok, err := g.rdb.SetNX(ctx, makeKey(id), value, g.retention).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}
	if !ok {
		return dedup.AlreadyClaimed, nil
	}
	return dedup.Claimed, nil
}

// Release rewrites the claim value with the outcome while preserving the
// remaining TTL.
func (g *Guard) Release(ctx context.Context, id core.EventID, outcome dedup.Outcome) error {
	if id == "" {
		return dedup.ErrEmptyEventID
	}
	key := makeKey(id)

	current, err := g.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return dedup.ErrNotClaimed
		}
		return fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	_, firstSeen, err := decodeValue(current)
	if err != nil {
		return err
	}

	err = g.rdb.Set(ctx, key, encodeValue(outcome, firstSeen), goredis.KeepTTL).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	g.logger.Debug("released claim", "eventID", id, "outcome", outcome)
	return nil
}

// Get returns the stored entry for an event ID.
func (g *Guard) Get(ctx context.Context, id core.EventID) (*dedup.Entry, error) {
	value, err := g.rdb.Get(ctx, makeKey(id)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, dedup.ErrNotClaimed
		}
		return nil, fmt.Errorf("%w: %v", dedup.ErrStoreUnavailable, err)
	}

	outcome, firstSeen, err := decodeValue(value)
	if err != nil {
		return nil, err
	}
	return &dedup.Entry{
		EventID:   id,
		FirstSeen: firstSeen,
		Outcome:   outcome,
	}, nil
}

// Claim values are "outcome|unixMicros", human-readable under redis-cli.

func encodeValue(outcome dedup.Outcome, firstSeen time.Time) string {
	return outcome.String() + "|" + strconv.FormatInt(firstSeen.UnixMicro(), 10)
}

func decodeValue(value string) (dedup.Outcome, time.Time, error) {
	outcomeStr, microStr, found := strings.Cut(value, "|")
	if !found {
		return 0, time.Time{}, fmt.Errorf("malformed claim value %q", value)
	}

	outcome, err := dedup.ParseOutcome(outcomeStr)
	if err != nil {
		return 0, time.Time{}, err
	}
	micros, err := strconv.ParseInt(microStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed claim timestamp %q", microStr)
	}
	return outcome, time.UnixMicro(micros).UTC(), nil
}

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


package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/respondit/core"
)

// DefaultRetention is how long a claim is remembered.
const DefaultRetention = 24 * time.Hour

var (
	// ErrEmptyEventID indicates a claim attempt with no event ID.
	ErrEmptyEventID = errors.New("event id is empty")

	// ErrStoreUnavailable indicates the claim store could not be reached.
	// Callers must treat this as "do not process": failing open would
	// let duplicates through on every store hiccup.
	ErrStoreUnavailable = errors.New("claim store unavailable")
)

// ClaimResult is the outcome of a claim attempt.
type ClaimResult int

const (
	// Claimed means this caller owns the event and must process it.
	Claimed ClaimResult = iota + 1
	// AlreadyClaimed means another caller owns or owned the event; the
	// duplicate is dropped silently.
	AlreadyClaimed
)

// Outcome records how processing of a claimed event ended.
type Outcome int

const (
	// OutcomeInProgress is the state between Claim and Release.
	OutcomeInProgress Outcome = iota + 1
	// OutcomeCompleted means processing succeeded.
	OutcomeCompleted
	// OutcomeFailed means processing failed. The claim is kept: a
	// redelivered failed event is still a duplicate.
	OutcomeFailed
)

// String returns the stored wire form of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "in_progress":
		return OutcomeInProgress, nil
	case "completed":
		return OutcomeCompleted, nil
	case "failed":
		return OutcomeFailed, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Entry is a stored claim.
type Entry struct {
	EventID   core.EventID
	FirstSeen time.Time
	Outcome   Outcome
}

// Guard is the dedup claim store. Claim must be atomic across all
// instances sharing the store: for N concurrent claims of one event ID,
// exactly one receives Claimed.
type Guard interface {
	// Claim attempts to take ownership of an event ID.
	Claim(ctx context.Context, id core.EventID) (ClaimResult, error)

	// Release records the processing outcome for a claimed event. The
	// entry stays until its retention expires regardless of outcome.
	Release(ctx context.Context, id core.EventID, outcome Outcome) error

	// Get returns the stored entry, or ErrNotClaimed if none exists.
	Get(ctx context.Context, id core.EventID) (*Entry, error)

	// Close releases the store connection.
	Close() error
}

// ErrNotClaimed indicates a lookup or release for an event that holds no
// live claim.
var ErrNotClaimed = errors.New("event not claimed")

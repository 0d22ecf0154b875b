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


package index

import (
	"errors"
	"fmt"

	"github.com/poiesic/respondit/core"
)

var (
	// ErrUnavailable indicates the index could not be reached or timed out.
	ErrUnavailable = errors.New("vector index unavailable")

	// ErrRejected indicates the index refused the request, for example a
	// vector dimension mismatch. Retrying will not help.
	ErrRejected = errors.New("vector index rejected request")
)

// PartialError reports an upsert where some records were not committed.
// Callers treat it as a full failure and roll the document back; the
// failed IDs exist for logging.
type PartialError struct {
	FailedIDs []core.ChunkID
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("upsert failed for %d records", len(e.FailedIDs))
}

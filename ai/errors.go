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


package ai

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding service failed
	// transiently and retries were exhausted. Callers must treat the
	// batch as not committed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingRejected indicates the embedding service rejected the
	// request permanently (malformed input, quota exhausted). The whole
	// batch is aborted without retry.
	ErrEmbeddingRejected = errors.New("embedding request rejected")

	// ErrGenerationUnavailable indicates the completion service failed.
	// Callers surface a user-visible apology rather than retrying.
	ErrGenerationUnavailable = errors.New("completion service unavailable")

	// ErrInvalidMaxAttempts indicates a retry policy with a non-positive
	// attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

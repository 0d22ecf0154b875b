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


// Package ai provides abstractions for the AI services used in Respondit.
//
// This package defines interfaces for text embedding and answer generation.
// It follows the dependency inversion principle, allowing the pipeline
// packages to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around three key pieces:
//
//   - Embedder: generates vector embeddings from text, order preserving
//   - Generator: produces a grounded answer from a structured prompt
//   - BatchingEmbedder: wraps an Embedder with batch splitting, bounded
//     concurrency, and retry with exponential backoff
//
// # Error Taxonomy
//
// Transient embedding failures (rate limits, timeouts) are retried inside
// BatchingEmbedder and surface as ErrEmbeddingUnavailable after exhaustion.
// Non-retryable failures surface as ErrEmbeddingRejected and abort the whole
// batch. Completion failures surface as ErrGenerationUnavailable; callers
// post a user-visible apology instead of retrying, so the same thread never
// receives duplicate or delayed answers.
//
// In every failure mode the caller receives either the complete result or
// none of it. Partially embedded batches are never returned.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
package ai

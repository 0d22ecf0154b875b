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


package router

import "errors"

var (
	// ErrGuardRequired indicates no dedup guard was provided.
	ErrGuardRequired = errors.New("dedup guard is required")

	// ErrIngestorRequired indicates no ingestion pipeline was provided.
	ErrIngestorRequired = errors.New("ingestor is required")

	// ErrAnswererRequired indicates no responder was provided.
	ErrAnswererRequired = errors.New("answerer is required")

	// ErrMessengerRequired indicates no reply channel was provided.
	ErrMessengerRequired = errors.New("messenger is required")

	// ErrClaimFailed indicates the dedup guard could not be consulted.
	// Events are dropped rather than processed twice when the guard is
	// unreachable.
	ErrClaimFailed = errors.New("event claim failed")
)

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


package chunk

import "errors"

var (
	// ErrInvalidParams indicates chunking parameters that violate
	// maxTokens > overlapTokens >= 0.
	ErrInvalidParams = errors.New("invalid chunking parameters")

	// ErrCounterRequired indicates a nil TokenCounter was passed.
	ErrCounterRequired = errors.New("token counter is required")
)

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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEvent indicates an Event failed validation.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyEventID indicates the event ID field is empty.
	ErrEmptyEventID = errors.New("event id cannot be empty")

	// ErrEmptyChannel indicates the channel field is empty.
	ErrEmptyChannel = errors.New("channel cannot be empty")

	// ErrInvalidEventKind indicates an invalid EventKind value.
	ErrInvalidEventKind = errors.New("invalid event kind")

	// ErrEmptyDocumentID indicates the document ID field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptySourceRef indicates the document source reference is empty.
	ErrEmptySourceRef = errors.New("document source reference cannot be empty")

	// ErrInvalidStatus indicates an invalid IngestionStatus value.
	ErrInvalidStatus = errors.New("invalid ingestion status")

	// ErrStatusTransition indicates a status change that would violate the
	// monotonic transition invariant.
	ErrStatusTransition = errors.New("illegal status transition")
)

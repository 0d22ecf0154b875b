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

import "fmt"

// ValidateEvent validates an Event according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Channel must not be empty
//   - Kind must be valid (question or upload)
//
// NOT validated:
//   - Text (uploads may carry no text at all)
//   - Thread (top-level messages have no thread)
func ValidateEvent(event *Event) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}

	if event.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrEmptyEventID)
	}

	if event.Channel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrEmptyChannel)
	}

	if err := ValidateEventKind(event.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	return nil
}

// ValidateEventKind validates that an EventKind has a valid value.
func ValidateEventKind(kind EventKind) error {
	switch kind {
	case EventQuestion, EventUpload:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidEventKind, int(kind))
	}
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Source.Ref must not be empty
//   - Status must be a known value
//
// NOT validated (populated by the pipeline):
//   - ChunkCount (0 until chunking completes)
//   - Title (falls back to Source.Ref when absent)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}

	if doc.Source.Ref == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceRef)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateStatus validates that an IngestionStatus has a valid value.
func ValidateStatus(status IngestionStatus) error {
	if status < StatusPending || status > StatusFailed {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(status))
	}
	return nil
}

package respond

import "errors"

var (
	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrGeneratorRequired indicates a nil generator.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrGatewayRequired indicates a nil index gateway.
	ErrGatewayRequired = errors.New("index gateway is required")

	// ErrInvalidParams indicates retrieval parameters out of range.
	ErrInvalidParams = errors.New("invalid retrieval parameters")
)

package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for the given texts.
	// The returned slice contains one vector per input, in input order.
	// Implementations either return a complete result or an error; a
	// partial vector set is never returned.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Passage is one retrieved chunk placed into a prompt, tagged with its
// source label for citation.
type Passage struct {
	// Ordinal is the 1-based label the model is told to cite, e.g. [2].
	Ordinal int
	// Title is the source document title shown next to the passage.
	Title string
	// Text is the chunk text.
	Text string
}

// Prompt is the structured input to the completion service: system
// instructions, ordered retrieved passages, and the user question.
type Prompt struct {
	System   string
	Passages []Passage
	Question string
}

// Generator produces a free-text answer grounded in the prompt's passages.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate invokes the completion service with the structured prompt
	// and returns the raw answer text. Failures wrap
	// ErrGenerationUnavailable.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service, already wrapped with
	// the provider's batching and retry policy.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// ModelVersion identifies the embedding model. Records indexed under
	// one version are invalidated by a version change.
	ModelVersion() string

	// Close releases resources held by the provider and its services.
	Close() error
}

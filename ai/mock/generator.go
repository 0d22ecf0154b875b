package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/respondit/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default behavior: echo the top passage with a citation.
	GenerateFunc func(ctx context.Context, prompt ai.Prompt) (string, error)

	mu        sync.Mutex
	callCount int
	prompts   []ai.Prompt
}

// NewMockGenerator creates a mock generator.
// Returns the concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompt and returns a canned grounded answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}

	if len(prompt.Passages) == 0 {
		return "I could not find that in the provided passages.", nil
	}
	top := prompt.Passages[0]
	return fmt.Sprintf("According to %s [%d]: %s", top.Title, top.Ordinal, top.Text), nil
}

// CallCount returns the number of Generate calls received.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of every prompt received, in arrival order.
func (m *MockGenerator) Prompts() []ai.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears recorded state and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}

// MockProvider aggregates the mocks behind the ai.Provider interface.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
}

// NewMockProvider creates a provider backed by fresh mocks.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockGenerator(),
	}
}

// Embedder returns the mock embedder as the interface type.
func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

// Generator returns the mock generator as the interface type.
func (p *MockProvider) Generator() ai.Generator { return p.generator }

// ModelVersion returns a fixed test model identifier.
func (p *MockProvider) ModelVersion() string { return "mock-embed-v1" }

// Close is a no-op.
func (p *MockProvider) Close() error { return nil }

// GetMockEmbedder returns the concrete mock for assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder { return p.embedder }

// GetMockGenerator returns the concrete mock for assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator { return p.generator }

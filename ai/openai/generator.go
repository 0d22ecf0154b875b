package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/respondit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:  client,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate invokes the chat completion API with the structured prompt.
// Any failure wraps ai.ErrGenerationUnavailable; the caller decides how to
// surface it, never this package.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt.System),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(renderUserMessage(prompt)),
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationUnavailable, err)
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return "", fmt.Errorf("%w: empty response", ai.ErrGenerationUnavailable)
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// renderUserMessage lays out the numbered passages and the question the way
// the system instructions describe them.
func renderUserMessage(prompt ai.Prompt) string {
	var sb strings.Builder

	sb.WriteString("Context passages:\n\n")
	for _, p := range prompt.Passages {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", p.Ordinal, p.Title, p.Text)
	}

	sb.WriteString("Question: ")
	sb.WriteString(prompt.Question)

	return sb.String()
}

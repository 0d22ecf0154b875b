package respond

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/respondit/ai"
	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/index"
)

// Params bound retrieval for one answer.
type Params struct {
	// TopK is how many records to retrieve from the index.
	TopK int
	// MinScore drops retrieved records scoring below it.
	MinScore float32
}

// DefaultParams returns the standard retrieval parameters.
func DefaultParams() Params {
	return Params{TopK: 5, MinScore: 0.60}
}

func (p Params) validate() error {
	if p.TopK < 1 {
		return fmt.Errorf("%w: topK must be positive, got %d", ErrInvalidParams, p.TopK)
	}
	if p.MinScore < -1 || p.MinScore > 1 {
		return fmt.Errorf("%w: minScore must be within [-1, 1], got %f", ErrInvalidParams, p.MinScore)
	}
	return nil
}

// Responder answers questions with retrieval-augmented generation.
// Stateless between calls; safe for concurrent use.
type Responder struct {
	embedder  ai.Embedder
	generator ai.Generator
	gateway   index.Gateway
	params    Params
	logger    *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "respond")
		return nil
	}
}

// NewResponder creates a Responder.
func NewResponder(embedder ai.Embedder, generator ai.Generator, gateway index.Gateway, params Params, opts ...Option) (*Responder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	r := &Responder{
		embedder:  embedder,
		generator: generator,
		gateway:   gateway,
		params:    params,
		logger:    slog.Default().With("component", "respond"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Answer retrieves context for question and generates an answer from it.
func (r *Responder) Answer(ctx context.Context, question string) (*core.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, err
	}

	hits, err := r.gateway.Query(ctx, vectors[0], r.params.TopK, nil)
	if err != nil {
		return nil, err
	}

	var relevant []*core.ScoredRecord
	for _, hit := range hits {
		if hit.Score >= r.params.MinScore {
			relevant = append(relevant, hit)
		}
	}

	if len(relevant) == 0 {
		r.logger.Info("no context above threshold",
			"retrieved", len(hits), "minScore", r.params.MinScore)
		return &core.Answer{Text: noContextMessage, NoContext: true}, nil
	}

	prompt := ai.Prompt{
		System:   systemPrompt,
		Question: question,
		Passages: make([]ai.Passage, len(relevant)),
	}
	for i, hit := range relevant {
		prompt.Passages[i] = ai.Passage{
			Ordinal: i + 1,
			Title:   hit.Record.Title,
			Text:    hit.Record.Text,
		}
	}

	text, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	answer := &core.Answer{
		Text:      text,
		Citations: resolveCitations(text, relevant),
	}

	r.logger.Info("answered question",
		"passages", len(relevant), "citations", len(answer.Citations), "topScore", relevant[0].Score)
	return answer, nil
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// resolveCitations maps [n] labels in the answer back to the documents
// behind the cited passages. A model that cites nothing gets every
// passage's document cited instead; sources always surface with context.
func resolveCitations(text string, relevant []*core.ScoredRecord) []core.Citation {
	cited := make([]*core.ScoredRecord, 0, len(relevant))

	for _, match := range citationPattern.FindAllStringSubmatch(text, -1) {
		ordinal, err := strconv.Atoi(match[1])
		if err != nil || ordinal < 1 || ordinal > len(relevant) {
			continue
		}
		cited = append(cited, relevant[ordinal-1])
	}
	if len(cited) == 0 {
		cited = relevant
	}

	seen := make(map[core.DocumentID]bool, len(cited))
	citations := make([]core.Citation, 0, len(cited))
	for _, hit := range cited {
		if seen[hit.Record.DocumentID] {
			continue
		}
		seen[hit.Record.DocumentID] = true
		citations = append(citations, core.Citation{
			DocumentID: hit.Record.DocumentID,
			Title:      hit.Record.Title,
			Source:     hit.Record.Source,
		})
	}
	return citations
}

package respond

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/ai"
	"github.com/poiesic/respondit/ai/mock"
	"github.com/poiesic/respondit/core"
	indexbadger "github.com/poiesic/respondit/index/badger"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

type fixture struct {
	embedder  *mock.MockEmbedder
	generator *mock.MockGenerator
	gateway   *indexbadger.Gateway
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	gateway, err := indexbadger.NewGateway(backend)
	require.NoError(t, err)

	return &fixture{
		embedder:  mock.NewMockEmbedder(),
		generator: mock.NewMockGenerator(),
		gateway:   gateway,
	}
}

func (f *fixture) responder(t *testing.T, params Params) *Responder {
	t.Helper()
	r, err := NewResponder(f.embedder, f.generator, f.gateway, params)
	require.NoError(t, err)
	return r
}

func (f *fixture) indexChunk(t *testing.T, docID core.DocumentID, title string, sequence int, text string) {
	t.Helper()
	err := f.gateway.Upsert(context.Background(), []*core.IndexRecord{{
		ChunkID:      core.ChunkIDFor(docID, sequence),
		DocumentID:   docID,
		Title:        title,
		Source:       string(docID) + ".txt",
		Text:         text,
		Vector:       mock.DeterministicVector(text, mock.Dim),
		Sequence:     sequence,
		ModelVersion: "mock-embed-v1",
	}})
	require.NoError(t, err)
}

func TestAnswerPolicyScenario(t *testing.T) {
	f := setup(t)

	// Three chunks of Policy A on different topics.
	f.indexChunk(t, "doc-policy-a", "Policy A", 0,
		"Remote work is allowed two days per week for all employees.")
	f.indexChunk(t, "doc-policy-a", "Policy A", 1,
		"Expense reports must be submitted by the first of each month.")
	f.indexChunk(t, "doc-policy-a", "Policy A", 2,
		"Security training must be completed annually by every employee.")

	// Low threshold: the mock embedding space only guarantees relative
	// ordering, not absolute score bands.
	r := f.responder(t, Params{TopK: 3, MinScore: 0.0})

	answer, err := r.Answer(context.Background(), "How many days of remote work are allowed per week?")
	require.NoError(t, err)
	assert.False(t, answer.NoContext)

	// The remote work chunk ranks first and becomes the top passage.
	prompts := f.generator.Prompts()
	require.Len(t, prompts, 1)
	require.NotEmpty(t, prompts[0].Passages)
	assert.Contains(t, prompts[0].Passages[0].Text, "Remote work")
	assert.Equal(t, "How many days of remote work are allowed per week?", prompts[0].Question)

	// The answer cites Policy A.
	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "Policy A", answer.Citations[0].Title)
	assert.Equal(t, core.DocumentID("doc-policy-a"), answer.Citations[0].DocumentID)
}

func TestAnswerNoContext(t *testing.T) {
	f := setup(t)
	r := f.responder(t, DefaultParams())

	answer, err := r.Answer(context.Background(), "What is the meaning of life?")
	require.NoError(t, err)

	assert.True(t, answer.NoContext)
	assert.NotEmpty(t, answer.Text)
	assert.Empty(t, answer.Citations)

	// The completion model is never consulted without context.
	assert.Zero(t, f.generator.CallCount())
}

func TestAnswerBelowThresholdSkipsGenerator(t *testing.T) {
	f := setup(t)
	f.indexChunk(t, "doc-1", "Doc", 0, "completely unrelated content about gardening")

	// Threshold high enough that the unrelated chunk is dropped.
	r := f.responder(t, Params{TopK: 5, MinScore: 0.99})

	answer, err := r.Answer(context.Background(), "How do I configure the VPN?")
	require.NoError(t, err)
	assert.True(t, answer.NoContext)
	assert.Zero(t, f.generator.CallCount())
}

func TestAnswerEmptyQuestion(t *testing.T) {
	f := setup(t)
	r := f.responder(t, DefaultParams())

	_, err := r.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAnswerGenerationFailure(t *testing.T) {
	f := setup(t)
	f.indexChunk(t, "doc-1", "Doc", 0, "the VPN configuration guide")
	f.generator.GenerateFunc = func(ctx context.Context, prompt ai.Prompt) (string, error) {
		return "", fmt.Errorf("%w: model overloaded", ai.ErrGenerationUnavailable)
	}

	r := f.responder(t, Params{TopK: 5, MinScore: 0.0})

	_, err := r.Answer(context.Background(), "the VPN configuration guide")
	assert.ErrorIs(t, err, ai.ErrGenerationUnavailable)
}

func TestResolveCitations(t *testing.T) {
	hits := []*core.ScoredRecord{
		{Record: &core.IndexRecord{DocumentID: "doc-a", Title: "Doc A", Source: "a.txt"}},
		{Record: &core.IndexRecord{DocumentID: "doc-b", Title: "Doc B", Source: "b.txt"}},
		{Record: &core.IndexRecord{DocumentID: "doc-a", Title: "Doc A", Source: "a.txt", Sequence: 1}},
	}

	t.Run("explicit citations", func(t *testing.T) {
		citations := resolveCitations("See [2] for details.", hits)
		require.Len(t, citations, 1)
		assert.Equal(t, core.DocumentID("doc-b"), citations[0].DocumentID)
	})

	t.Run("citations deduplicate by document", func(t *testing.T) {
		citations := resolveCitations("Both [1] and [3] agree.", hits)
		require.Len(t, citations, 1)
		assert.Equal(t, core.DocumentID("doc-a"), citations[0].DocumentID)
	})

	t.Run("no explicit citations cites everything", func(t *testing.T) {
		citations := resolveCitations("The answer is 42.", hits)
		require.Len(t, citations, 2)
		assert.Equal(t, core.DocumentID("doc-a"), citations[0].DocumentID)
		assert.Equal(t, core.DocumentID("doc-b"), citations[1].DocumentID)
	})

	t.Run("out of range ordinals ignored", func(t *testing.T) {
		citations := resolveCitations("See [7] and [0].", hits)
		// Both labels are invalid, so the fallback applies.
		assert.Len(t, citations, 2)
	})
}

func TestNewResponderValidation(t *testing.T) {
	f := setup(t)

	_, err := NewResponder(nil, f.generator, f.gateway, DefaultParams())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewResponder(f.embedder, nil, f.gateway, DefaultParams())
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	_, err = NewResponder(f.embedder, f.generator, nil, DefaultParams())
	assert.ErrorIs(t, err, ErrGatewayRequired)

	_, err = NewResponder(f.embedder, f.generator, f.gateway, Params{TopK: 0})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewResponder(f.embedder, f.generator, f.gateway, Params{TopK: 5, MinScore: 2})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

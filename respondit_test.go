package respondit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/ai/mock"
	"github.com/poiesic/respondit/config"
	"github.com/poiesic/respondit/core"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.InMemory = true
	return cfg
}

func TestServiceLifecycle(t *testing.T) {
	service, err := NewService(testConfig(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	assert.NotNil(t, service.DocumentRepository())
	assert.NotNil(t, service.Gateway())
	assert.NotNil(t, service.Guard())

	require.NoError(t, service.Close())
}

func TestServiceIngestAndAnswer(t *testing.T) {
	service, err := NewService(testConfig(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer service.Close()

	orchestrator, err := service.NewOrchestrator()
	require.NoError(t, err)

	ctx := context.Background()
	document, err := orchestrator.Ingest(ctx,
		"doc-1",
		core.DocumentSource{Kind: core.SourceFile, Ref: "policy.txt"},
		"text/plain",
		"Policy",
		[]byte("Remote work is allowed two days per week."))
	require.NoError(t, err)
	assert.Equal(t, core.StatusIndexed, document.Status)

	responder, err := service.NewResponder()
	require.NoError(t, err)

	answer, err := responder.Answer(ctx, "Remote work is allowed two days per week.")
	require.NoError(t, err)
	assert.False(t, answer.NoContext)
	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "Policy", answer.Citations[0].Title)
}

func TestServiceEnsureIndexEmbeddedNoop(t *testing.T) {
	service, err := NewService(testConfig(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer service.Close()

	assert.NoError(t, service.EnsureIndex(0))
}

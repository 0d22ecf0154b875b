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


package respondit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/respondit/ai"
	"github.com/poiesic/respondit/ai/openai"
	"github.com/poiesic/respondit/chunk"
	"github.com/poiesic/respondit/config"
	"github.com/poiesic/respondit/dedup"
	dedupbadger "github.com/poiesic/respondit/dedup/badger"
	dedupredis "github.com/poiesic/respondit/dedup/redis"
	"github.com/poiesic/respondit/extract"
	"github.com/poiesic/respondit/index"
	indexbadger "github.com/poiesic/respondit/index/badger"
	indexqdrant "github.com/poiesic/respondit/index/qdrant"
	"github.com/poiesic/respondit/ingest"
	"github.com/poiesic/respondit/respond"
	"github.com/poiesic/respondit/router"
	"github.com/poiesic/respondit/storage"
	storagebadger "github.com/poiesic/respondit/storage/badger"
)

// Service owns every component of the question-answering bot: the local
// document store, the vector index, the dedup guard, the AI provider, the
// ingestion pipeline, and the responder. Construct it once from a Config
// and close it on shutdown.
type Service struct {
	config    *config.Config
	backend   *storagebadger.Backend
	documents storage.DocumentRepository
	gateway   index.Gateway
	guard     dedup.Guard
	provider  ai.Provider
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
}

// WithProvider substitutes the AI provider, used by tests and one-shot
// commands that bring their own.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// NewService wires the service from configuration.
func NewService(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := storagebadger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	documents, err := storagebadger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	gateway, err := newGateway(cfg, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	guard, err := newGuard(cfg, backend)
	if err != nil {
		gateway.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(aiConfig(cfg))
		if err != nil {
			guard.Close()
			gateway.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Service{
		config:    cfg,
		backend:   backend,
		documents: documents,
		gateway:   gateway,
		guard:     guard,
		provider:  provider,
		logger:    slog.Default().With("component", "service"),
	}, nil
}

func newGateway(cfg *config.Config, backend *storagebadger.Backend) (index.Gateway, error) {
	switch cfg.Index.Backend {
	case "qdrant":
		return indexqdrant.NewGateway(indexqdrant.Config{
			Host:       cfg.Index.Host,
			Port:       cfg.Index.Port,
			Collection: cfg.Index.Collection,
			VectorSize: cfg.Index.VectorSize,
		})
	default:
		return indexbadger.NewGateway(backend)
	}
}

func newGuard(cfg *config.Config, backend *storagebadger.Backend) (dedup.Guard, error) {
	switch cfg.Dedup.Backend {
	case "redis":
		return dedupredis.NewGuard(cfg.Dedup.RedisAddr, cfg.Dedup.Retention)
	default:
		return dedupbadger.NewGuard(backend, cfg.Dedup.Retention)
	}
}

func aiConfig(cfg *config.Config) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithCompletionHost(cfg.AI.CompletionHost),
		ai.WithToken(cfg.AI.Token),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithCompletionModel(cfg.AI.CompletionModel),
		ai.WithBatchSize(cfg.AI.BatchSize),
		ai.WithRetryPolicy(cfg.AI.MaxAttempts, cfg.AI.RetryBaseDelay),
		ai.WithRequestTimeout(cfg.AI.RequestTimeout),
	)
}

// Close releases every component. Components close in reverse dependency
// order; the first error wins but everything still gets closed.
func (s *Service) Close() error {
	var firstErr error

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		firstErr = err
	}
	if err := s.guard.Close(); err != nil {
		s.logger.Error("error closing dedup guard", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := s.gateway.Close(); err != nil {
		s.logger.Error("error closing index gateway", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := s.documents.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DocumentRepository exposes the document store.
func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.documents
}

// Gateway exposes the vector index.
func (s *Service) Gateway() index.Gateway {
	return s.gateway
}

// Guard exposes the dedup guard.
func (s *Service) Guard() dedup.Guard {
	return s.guard
}

// NewOrchestrator builds the ingestion pipeline from the service's
// components and the configured chunking parameters.
func (s *Service) NewOrchestrator(opts ...ingest.Option) (*ingest.Orchestrator, error) {
	counter, err := chunk.NewTiktokenCounterForModel(s.config.AI.EmbeddingModel)
	if err != nil {
		// Models unknown to the tokenizer fall back to word counting,
		// which overestimates chunk budgets slightly but stays valid.
		s.logger.Warn("tokenizer unavailable for model, using word counts",
			"model", s.config.AI.EmbeddingModel, "err", err)
		return s.newOrchestratorWith(chunk.WordCounter{}, opts...)
	}
	return s.newOrchestratorWith(counter, opts...)
}

func (s *Service) newOrchestratorWith(counter chunk.TokenCounter, opts ...ingest.Option) (*ingest.Orchestrator, error) {
	chunker, err := chunk.NewChunker(counter, chunk.Params{
		MaxTokens:     s.config.Ingest.ChunkMaxTokens,
		OverlapTokens: s.config.Ingest.ChunkOverlapTokens,
	})
	if err != nil {
		return nil, err
	}

	opts = append([]ingest.Option{
		ingest.WithUpsertBatchSize(s.config.Ingest.UpsertBatchSize),
	}, opts...)

	return ingest.NewOrchestrator(
		s.documents,
		extract.NewRegistry(),
		chunker,
		s.provider.Embedder(),
		s.gateway,
		s.provider.ModelVersion(),
		opts...,
	)
}

// NewResponder builds the question responder with the configured
// retrieval parameters.
func (s *Service) NewResponder(opts ...respond.Option) (*respond.Responder, error) {
	return respond.NewResponder(
		s.provider.Embedder(),
		s.provider.Generator(),
		s.gateway,
		respond.Params{
			TopK:     s.config.Retrieval.TopK,
			MinScore: s.config.Retrieval.MinScore,
		},
		opts...,
	)
}

// NewRouter builds the event router on top of the service's pipeline and
// responder. messenger and downloader come from the chat adapter.
func (s *Service) NewRouter(messenger router.Messenger, downloader router.Downloader, opts ...router.Option) (*router.Router, error) {
	orchestrator, err := s.NewOrchestrator()
	if err != nil {
		return nil, err
	}

	responder, err := s.NewResponder()
	if err != nil {
		return nil, err
	}

	opts = append([]router.Option{
		router.WithPoolSize(s.config.Ingest.PoolSize),
		router.WithDownloader(downloader),
	}, opts...)

	return router.NewRouter(s.guard, orchestrator, responder, messenger, opts...)
}

// EnsureIndex prepares the vector index for writes. Only the qdrant
// backend needs setup; the embedded index is ready as soon as it opens.
func (s *Service) EnsureIndex(timeout time.Duration) error {
	gateway, ok := s.gateway.(*indexqdrant.Gateway)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := gateway.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure index collection: %w", err)
	}
	return nil
}

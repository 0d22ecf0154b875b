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


package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration. Zero values fall back to the
// defaults from DefaultConfig before validation runs.
type Config struct {
	Slack     SlackConfig     `toml:"slack"`
	AI        AIConfig        `toml:"ai"`
	Index     IndexConfig     `toml:"index"`
	Dedup     DedupConfig     `toml:"dedup"`
	Ingest    IngestConfig    `toml:"ingest"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Storage   StorageConfig   `toml:"storage"`
}

// SlackConfig covers the chat boundary. BotToken and SigningSecret can
// come from the SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET environment
// variables instead of the file.
type SlackConfig struct {
	BotToken      string `toml:"bot_token"`
	SigningSecret string `toml:"signing_secret"`
	ListenAddr    string `toml:"listen_addr" validate:"required"`
}

// AIConfig covers the embedding and completion services. Token can come
// from the AI_API_TOKEN environment variable.
type AIConfig struct {
	EmbeddingHost   string        `toml:"embedding_host" validate:"required,url"`
	CompletionHost  string        `toml:"completion_host" validate:"required,url"`
	Token           string        `toml:"token"`
	EmbeddingModel  string        `toml:"embedding_model" validate:"required"`
	CompletionModel string        `toml:"completion_model" validate:"required"`
	BatchSize       int           `toml:"batch_size" validate:"min=1"`
	MaxAttempts     int           `toml:"max_attempts" validate:"min=1"`
	RetryBaseDelay  time.Duration `toml:"retry_base_delay" validate:"min=1ms"`
	RequestTimeout  time.Duration `toml:"request_timeout" validate:"min=1ms"`
}

// IndexConfig covers the vector index. Backend "badger" embeds the index
// in the local store; "qdrant" uses an external server.
type IndexConfig struct {
	Backend    string `toml:"backend" validate:"oneof=badger qdrant"`
	Host       string `toml:"host" validate:"required_if=Backend qdrant"`
	Port       int    `toml:"port" validate:"min=0,max=65535"`
	Collection string `toml:"collection" validate:"required_if=Backend qdrant"`
	VectorSize int    `toml:"vector_size" validate:"min=1"`
}

// DedupConfig covers the event dedup guard. Backend "badger" is
// single-instance; "redis" shares claims across instances.
type DedupConfig struct {
	Backend   string        `toml:"backend" validate:"oneof=badger redis"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	Retention time.Duration `toml:"retention" validate:"min=1m"`
}

// IngestConfig covers chunking and indexing.
type IngestConfig struct {
	ChunkMaxTokens     int `toml:"chunk_max_tokens" validate:"min=1"`
	ChunkOverlapTokens int `toml:"chunk_overlap_tokens" validate:"min=0,ltfield=ChunkMaxTokens"`
	UpsertBatchSize    int `toml:"upsert_batch_size" validate:"min=1"`
	PoolSize           int `toml:"pool_size" validate:"min=1"`
}

// RetrievalConfig covers question answering.
type RetrievalConfig struct {
	TopK     int     `toml:"top_k" validate:"min=1"`
	MinScore float32 `toml:"min_score" validate:"gte=-1,lte=1"`
}

// StorageConfig covers the local document store.
type StorageConfig struct {
	Path     string `toml:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `toml:"in_memory"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Slack: SlackConfig{
			ListenAddr: ":8080",
		},
		AI: AIConfig{
			EmbeddingHost:   "http://localhost:11434/v1",
			CompletionHost:  "http://localhost:11434/v1",
			Token:           "none",
			EmbeddingModel:  "text-embedding-3-small",
			CompletionModel: "gpt-4o-mini",
			BatchSize:       16,
			MaxAttempts:     3,
			RetryBaseDelay:  time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Index: IndexConfig{
			Backend:    "badger",
			Port:       6334,
			Collection: "documents",
			VectorSize: 1536,
		},
		Dedup: DedupConfig{
			Backend:   "badger",
			Retention: 24 * time.Hour,
		},
		Ingest: IngestConfig{
			ChunkMaxTokens:     512,
			ChunkOverlapTokens: 64,
			UpsertBatchSize:    64,
			PoolSize:           4,
		},
		Retrieval: RetrievalConfig{
			TopK:     5,
			MinScore: 0.60,
		},
		Storage: StorageConfig{
			Path: "./data/respondit",
		},
	}
}

// Load reads a TOML file over the defaults, applies environment
// overrides, and validates the result. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets from the environment so they can stay out
// of the config file.
func (c *Config) applyEnv() {
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		c.Slack.BotToken = token
	}
	if secret := os.Getenv("SLACK_SIGNING_SECRET"); secret != "" {
		c.Slack.SigningSecret = secret
	}
	if token := os.Getenv("AI_API_TOKEN"); token != "" {
		c.AI.Token = token
	}
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

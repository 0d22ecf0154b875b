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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/respondit"
	"github.com/poiesic/respondit/config"
	"github.com/poiesic/respondit/core"
	indexqdrant "github.com/poiesic/respondit/index/qdrant"
	"github.com/poiesic/respondit/reindex"
	"github.com/poiesic/respondit/slack"
)

func main() {
	app := &cli.App{
		Name:  "respondit",
		Usage: "Chat-driven document Q&A with retrieval-augmented answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the chat event webhook listener",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address, overrides the config file",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a file or URL into the index",
				ArgsUsage: "<path-or-url>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title, defaults to the file name",
					},
					&cli.StringFlag{
						Name:  "mime-type",
						Usage: "MIME type, detected from the extension when omitted",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a one-shot question against the index",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "init-index",
				Usage:  "Create the vector index collection if it does not exist",
				Action: initIndexCommand,
			},
			{
				Name:   "refresh",
				Usage:  "Re-fetch and re-index URL-sourced documents",
				Action: refreshCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if listen := c.String("listen"); listen != "" {
		cfg.Slack.ListenAddr = listen
	}

	service, err := respondit.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer service.Close()

	if err := service.EnsureIndex(30 * time.Second); err != nil {
		return err
	}

	client, err := slack.NewClient(cfg.Slack.BotToken)
	if err != nil {
		return err
	}

	router, err := service.NewRouter(client, client)
	if err != nil {
		return err
	}
	defer router.Close()

	server := newEventServer(cfg.Slack.ListenAddr, cfg.Slack.SigningSecret, router)
	return server.run(c.Context)
}

func ingestCommand(c *cli.Context) error {
	target := c.Args().First()
	if target == "" {
		return fmt.Errorf("usage: respondit ingest <path-or-url>")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	service, err := respondit.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer service.Close()

	if err := service.EnsureIndex(30 * time.Second); err != nil {
		return err
	}

	orchestrator, err := service.NewOrchestrator()
	if err != nil {
		return err
	}

	ctx := c.Context
	var document *core.Document
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		document, err = orchestrator.IngestURL(ctx, target)
	} else {
		document, err = ingestFile(ctx, orchestrator, target, c.String("title"), c.String("mime-type"))
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Indexed %q: %d chunks (document %s)\n", document.Title, document.ChunkCount, document.ID)
	return nil
}

func ingestFile(ctx context.Context, orchestrator ingestor, path, title, mimeType string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "text/plain"
		}
	}
	if title == "" {
		title = name
	}

	id := core.DocumentID("file-" + core.HashContent(name))
	source := core.DocumentSource{Kind: core.SourceFile, Ref: name}
	return orchestrator.Ingest(ctx, id, source, mimeType, title, data)
}

// ingestor keeps ingestFile testable without a full service.
type ingestor interface {
	Ingest(ctx context.Context, id core.DocumentID, source core.DocumentSource, mimeType, title string, data []byte) (*core.Document, error)
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("usage: respondit ask <question>")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	service, err := respondit.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer service.Close()

	responder, err := service.NewResponder()
	if err != nil {
		return err
	}

	answer, err := responder.Answer(c.Context, question)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  - %s (%s)\n", citation.Title, citation.Source)
		}
	}
	return nil
}

func initIndexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if cfg.Index.Backend != "qdrant" {
		fmt.Println("Embedded index needs no setup.")
		return nil
	}

	gateway, err := indexqdrant.NewGateway(indexqdrant.Config{
		Host:       cfg.Index.Host,
		Port:       cfg.Index.Port,
		Collection: cfg.Index.Collection,
		VectorSize: cfg.Index.VectorSize,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to index: %w", err)
	}
	defer gateway.Close()

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	if err := gateway.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	fmt.Printf("Collection %q ready.\n", cfg.Index.Collection)
	return nil
}

func refreshCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	service, err := respondit.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer service.Close()

	if err := service.EnsureIndex(30 * time.Second); err != nil {
		return err
	}

	orchestrator, err := service.NewOrchestrator()
	if err != nil {
		return err
	}

	reindexer, err := reindex.NewReindexer(
		service.DocumentRepository(),
		orchestrator,
		reindex.WithProgress(os.Stderr, c.Int("report-interval")),
	)
	if err != nil {
		return err
	}

	report, err := reindexer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Refreshed %d of %d documents (%d skipped, %d failed)\n",
		report.Refreshed, report.Scanned, report.Skipped, report.Failed)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

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


package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/dedup"
	"github.com/poiesic/respondit/extract"
)

const (
	// DefaultPoolSize is the number of events processed concurrently.
	DefaultPoolSize = 4

	// DefaultProcessTimeout bounds the handling of a single event.
	DefaultProcessTimeout = 5 * time.Minute
)

// Ingestor runs documents through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, id core.DocumentID, source core.DocumentSource, mimeType, title string, data []byte) (*core.Document, error)
	IngestURL(ctx context.Context, url string) (*core.Document, error)
}

// Answerer produces grounded answers to questions.
type Answerer interface {
	Answer(ctx context.Context, question string) (*core.Answer, error)
}

// Messenger posts replies into the originating thread.
type Messenger interface {
	PostReply(ctx context.Context, channel, thread, text string) error
}

// Downloader fetches attachment bytes from the chat platform.
type Downloader interface {
	Download(ctx context.Context, attachment core.Attachment) ([]byte, error)
}

// Router deduplicates, classifies, and dispatches inbound chat events.
// HandleEvent returns as soon as the event is claimed; the work itself
// runs on a worker pool so webhook handlers can acknowledge quickly.
type Router struct {
	guard          dedup.Guard
	ingestor       Ingestor
	answerer       Answerer
	messenger      Messenger
	downloader     Downloader
	pool           *ants.Pool
	processTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithPoolSize sets the worker pool size for event processing.
func WithPoolSize(size int) Option {
	return func(r *Router) error {
		if size <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", size)
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return fmt.Errorf("failed to create worker pool: %w", err)
		}
		r.pool = pool
		return nil
	}
}

// WithDownloader sets the attachment downloader. Without one, only
// attachments carrying inline data can be ingested.
func WithDownloader(downloader Downloader) Option {
	return func(r *Router) error {
		r.downloader = downloader
		return nil
	}
}

// WithProcessTimeout bounds the handling of a single event.
func WithProcessTimeout(timeout time.Duration) Option {
	return func(r *Router) error {
		if timeout <= 0 {
			return fmt.Errorf("process timeout must be positive, got %s", timeout)
		}
		r.processTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		r.logger = logger.With("component", "router")
		return nil
	}
}

// NewRouter creates a Router.
func NewRouter(guard dedup.Guard, ingestor Ingestor, answerer Answerer, messenger Messenger, opts ...Option) (*Router, error) {
	if guard == nil {
		return nil, ErrGuardRequired
	}
	if ingestor == nil {
		return nil, ErrIngestorRequired
	}
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	if messenger == nil {
		return nil, ErrMessengerRequired
	}

	r := &Router{
		guard:          guard,
		ingestor:       ingestor,
		answerer:       answerer,
		messenger:      messenger,
		processTimeout: DefaultProcessTimeout,
		logger:         slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			if r.pool != nil {
				r.pool.Release()
			}
			return nil, err
		}
	}

	if r.pool == nil {
		pool, err := ants.NewPool(DefaultPoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create worker pool: %w", err)
		}
		r.pool = pool
	}

	return r, nil
}

// HandleEvent validates and claims an event, then schedules it for
// processing. Duplicate events are dropped silently. The error return
// covers validation and scheduling only; processing outcomes surface as
// thread replies.
func (r *Router) HandleEvent(ctx context.Context, event *core.Event) error {
	if err := core.ValidateEvent(event); err != nil {
		return err
	}

	result, err := r.guard.Claim(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClaimFailed, err)
	}
	if result == dedup.AlreadyClaimed {
		r.logger.Debug("duplicate event dropped", "event_id", event.ID)
		return nil
	}

	if err := r.pool.Submit(func() { r.process(event) }); err != nil {
		// The claim stands so a redelivery is still deduplicated; the
		// guard records the failure.
		if releaseErr := r.guard.Release(ctx, event.ID, dedup.OutcomeFailed); releaseErr != nil {
			r.logger.Error("failed to release claim", "event_id", event.ID, "error", releaseErr)
		}
		return fmt.Errorf("failed to schedule event: %w", err)
	}

	return nil
}

// Close releases the worker pool. In-flight events finish first.
func (r *Router) Close() {
	r.pool.Release()
}

func (r *Router) process(event *core.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.processTimeout)
	defer cancel()

	var err error
	switch classify(event) {
	case classFileUpload:
		err = r.handleFileUpload(ctx, event)
	case classURLUpload:
		err = r.handleURLUpload(ctx, event)
	default:
		err = r.handleQuestion(ctx, event)
	}

	outcome := dedup.OutcomeCompleted
	if err != nil {
		outcome = dedup.OutcomeFailed
		r.logger.Error("event processing failed", "event_id", event.ID, "error", err)
	}
	if releaseErr := r.guard.Release(ctx, event.ID, outcome); releaseErr != nil {
		r.logger.Error("failed to release claim", "event_id", event.ID, "error", releaseErr)
	}
}

// handleFileUpload ingests every attachment on the event. Attachments
// fail independently; each failure posts one reply and the rest continue.
func (r *Router) handleFileUpload(ctx context.Context, event *core.Event) error {
	var failed int
	for _, attachment := range event.Attachments {
		if err := r.ingestAttachment(ctx, event, attachment); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d attachments failed", failed, len(event.Attachments))
	}
	return nil
}

func (r *Router) ingestAttachment(ctx context.Context, event *core.Event, attachment core.Attachment) error {
	data := attachment.Data
	if len(data) == 0 {
		if r.downloader == nil {
			r.reply(ctx, event, fmt.Sprintf(msgDownloadFailed, attachment.Name))
			return fmt.Errorf("attachment %s has no data and no downloader is configured", attachment.ID)
		}
		fetched, err := r.downloader.Download(ctx, attachment)
		if err != nil {
			r.logger.Error("attachment download failed", "attachment_id", attachment.ID, "error", err)
			r.reply(ctx, event, fmt.Sprintf(msgDownloadFailed, attachment.Name))
			return err
		}
		data = fetched
	}

	source := core.DocumentSource{Kind: core.SourceFile, Ref: attachment.Name}
	document, err := r.ingestor.Ingest(ctx, core.DocumentID(attachment.ID), source, attachment.MimeType, attachment.Name, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			r.reply(ctx, event, fmt.Sprintf(msgUnsupportedFile, attachment.Name))
		} else {
			r.reply(ctx, event, fmt.Sprintf(msgIngestFailed, attachment.Name))
		}
		return err
	}

	r.reply(ctx, event, fmt.Sprintf(msgIngested, attachment.Name, document.ChunkCount))
	return nil
}

// handleURLUpload fetches and ingests every URL in the message text.
func (r *Router) handleURLUpload(ctx context.Context, event *core.Event) error {
	urls := extractURLs(event.Text)

	var failed int
	for _, url := range urls {
		document, err := r.ingestor.IngestURL(ctx, url)
		if err != nil {
			failed++
			if errors.Is(err, extract.ErrFetchFailed) {
				r.reply(ctx, event, fmt.Sprintf(msgFetchFailed, url))
			} else {
				r.reply(ctx, event, fmt.Sprintf(msgIngestFailed, url))
			}
			continue
		}
		r.reply(ctx, event, fmt.Sprintf(msgIngestedURL, url, document.ChunkCount))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d urls failed", failed, len(urls))
	}
	return nil
}

func (r *Router) handleQuestion(ctx context.Context, event *core.Event) error {
	question := stripMentions(event.Text)
	if question == "" {
		r.reply(ctx, event, msgEmptyQuestion)
		return nil
	}

	answer, err := r.answerer.Answer(ctx, question)
	if err != nil {
		r.reply(ctx, event, msgAnswerFailed)
		return err
	}

	r.reply(ctx, event, formatAnswer(answer))
	return nil
}

// formatAnswer renders an answer with its source list. Answers without
// context carry no sources.
func formatAnswer(answer *core.Answer) string {
	if answer.NoContext || len(answer.Citations) == 0 {
		return answer.Text
	}

	var b strings.Builder
	b.WriteString(answer.Text)
	b.WriteString("\n\nSources:")
	for _, citation := range answer.Citations {
		b.WriteString("\n• ")
		b.WriteString(citation.Title)
		if citation.Source != "" && citation.Source != citation.Title {
			b.WriteString(" (")
			b.WriteString(citation.Source)
			b.WriteString(")")
		}
	}
	return b.String()
}

func (r *Router) reply(ctx context.Context, event *core.Event, text string) {
	if err := r.messenger.PostReply(ctx, event.Channel, event.Thread, text); err != nil {
		r.logger.Error("failed to post reply", "event_id", event.ID, "channel", event.Channel, "error", err)
	}
}

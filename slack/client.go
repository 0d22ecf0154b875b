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


package slack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	slackapi "github.com/slack-go/slack"

	"github.com/poiesic/respondit/core"
)

// ErrTokenRequired indicates the client was constructed without a token.
var ErrTokenRequired = errors.New("slack token is required")

// Client wraps the Slack Web API for thread replies and file downloads.
// It implements router.Messenger and router.Downloader.
type Client struct {
	api    *slackapi.Client
	logger *slog.Logger
}

// NewClient creates a Client from a bot token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	return &Client{
		api:    slackapi.New(token),
		logger: slog.Default().With("component", "slack"),
	}, nil
}

// PostReply posts text into a channel, threaded when thread is set.
func (c *Client) PostReply(ctx context.Context, channel, thread, text string) error {
	opts := []slackapi.MsgOption{slackapi.MsgOptionText(text, false)}
	if thread != "" {
		opts = append(opts, slackapi.MsgOptionTS(thread))
	}

	_, _, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("failed to post message to %s: %w", channel, err)
	}
	return nil
}

// Download fetches an attachment's bytes. Attachments reference files by
// ID; the private download URL comes from files.info and requires the
// bot token, which the underlying client supplies.
func (c *Client) Download(ctx context.Context, attachment core.Attachment) ([]byte, error) {
	url := attachment.URL
	if url == "" {
		file, _, _, err := c.api.GetFileInfoContext(ctx, attachment.ID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to look up file %s: %w", attachment.ID, err)
		}
		url = file.URLPrivateDownload
		if url == "" {
			url = file.URLPrivate
		}
	}
	if url == "" {
		return nil, fmt.Errorf("file %s has no download url", attachment.ID)
	}

	var buf bytes.Buffer
	if err := c.api.GetFileContext(ctx, url, &buf); err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", attachment.ID, err)
	}

	c.logger.Debug("downloaded attachment",
		"attachment_id", attachment.ID,
		"name", attachment.Name,
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

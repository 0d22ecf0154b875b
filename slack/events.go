package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/poiesic/respondit/core"
)

// ErrUnhandledEvent indicates a payload the bot does not act on, like
// reaction or channel events. Callers acknowledge it and move on.
var ErrUnhandledEvent = errors.New("unhandled event type")

// Inbound is a decoded Events API payload. Exactly one field is set:
// Challenge for url_verification handshakes, Event for app mentions.
type Inbound struct {
	Challenge string
	Event     *core.Event
}

// mentionFiles recovers file attachments from the raw inner event.
// The typed app_mention struct does not surface them.
type mentionFiles struct {
	Event struct {
		Files []slackapi.File `json:"files"`
	} `json:"event"`
}

// ParseInbound decodes an Events API request body into an Inbound.
// Signature verification happens before this is called.
func ParseInbound(body []byte) (*Inbound, error) {
	parsed, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}

	switch parsed.Type {
	case slackevents.URLVerification:
		challenge, ok := parsed.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			return nil, fmt.Errorf("malformed url_verification payload")
		}
		return &Inbound{Challenge: challenge.Challenge}, nil

	case slackevents.CallbackEvent:
		mention, ok := parsed.InnerEvent.Data.(*slackevents.AppMentionEvent)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, parsed.InnerEvent.Type)
		}

		callback, _ := parsed.Data.(*slackevents.EventsAPICallbackEvent)
		eventID := ""
		if callback != nil {
			eventID = callback.EventID
		}
		if eventID == "" {
			// Fall back to the message timestamp, which is unique per
			// channel message.
			eventID = mention.Channel + ":" + mention.TimeStamp
		}

		var files mentionFiles
		if err := json.Unmarshal(body, &files); err != nil {
			return nil, fmt.Errorf("failed to decode attachments: %w", err)
		}

		event := &core.Event{
			ID:         core.EventID(eventID),
			Kind:       core.EventQuestion,
			Channel:    mention.Channel,
			Thread:     threadFor(mention),
			Author:     mention.User,
			Text:       mention.Text,
			ReceivedAt: time.Now().UTC(),
		}
		for _, file := range files.Event.Files {
			event.Kind = core.EventUpload
			event.Attachments = append(event.Attachments, core.Attachment{
				ID:       file.ID,
				Name:     file.Name,
				MimeType: file.Mimetype,
				URL:      file.URLPrivateDownload,
			})
		}
		return &Inbound{Event: event}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, parsed.Type)
	}
}

// threadFor picks the reply thread: the parent thread when the mention is
// already inside one, otherwise the mention itself starts the thread.
func threadFor(mention *slackevents.AppMentionEvent) string {
	if mention.ThreadTimeStamp != "" {
		return mention.ThreadTimeStamp
	}
	return mention.TimeStamp
}

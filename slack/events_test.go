package slack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/respondit/core"
)

func TestParseInboundURLVerification(t *testing.T) {
	body := []byte(`{"type":"url_verification","challenge":"abc123","token":"t"}`)

	inbound, err := ParseInbound(body)
	require.NoError(t, err)
	assert.Equal(t, "abc123", inbound.Challenge)
	assert.Nil(t, inbound.Event)
}

func TestParseInboundAppMention(t *testing.T) {
	body := []byte(`{
		"type": "event_callback",
		"event_id": "Ev0001",
		"event": {
			"type": "app_mention",
			"user": "U42",
			"text": "<@U99> what is the vacation policy?",
			"channel": "C123",
			"ts": "1700000000.000100"
		}
	}`)

	inbound, err := ParseInbound(body)
	require.NoError(t, err)
	require.NotNil(t, inbound.Event)

	event := inbound.Event
	assert.Equal(t, core.EventID("Ev0001"), event.ID)
	assert.Equal(t, core.EventQuestion, event.Kind)
	assert.Equal(t, "C123", event.Channel)
	assert.Equal(t, "1700000000.000100", event.Thread)
	assert.Equal(t, "U42", event.Author)
	assert.Contains(t, event.Text, "vacation policy")
	assert.Empty(t, event.Attachments)
}

func TestParseInboundThreadedMention(t *testing.T) {
	body := []byte(`{
		"type": "event_callback",
		"event_id": "Ev0002",
		"event": {
			"type": "app_mention",
			"user": "U42",
			"text": "<@U99> follow-up",
			"channel": "C123",
			"ts": "1700000001.000200",
			"thread_ts": "1700000000.000100"
		}
	}`)

	inbound, err := ParseInbound(body)
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000100", inbound.Event.Thread)
}

func TestParseInboundMentionWithFiles(t *testing.T) {
	body := []byte(`{
		"type": "event_callback",
		"event_id": "Ev0003",
		"event": {
			"type": "app_mention",
			"user": "U42",
			"text": "<@U99>",
			"channel": "C123",
			"ts": "1700000002.000300",
			"files": [
				{
					"id": "F001",
					"name": "handbook.pdf",
					"mimetype": "application/pdf",
					"url_private_download": "https://files.example.com/F001"
				}
			]
		}
	}`)

	inbound, err := ParseInbound(body)
	require.NoError(t, err)

	event := inbound.Event
	assert.Equal(t, core.EventUpload, event.Kind)
	require.Len(t, event.Attachments, 1)
	assert.Equal(t, "F001", event.Attachments[0].ID)
	assert.Equal(t, "handbook.pdf", event.Attachments[0].Name)
	assert.Equal(t, "application/pdf", event.Attachments[0].MimeType)
	assert.Equal(t, "https://files.example.com/F001", event.Attachments[0].URL)
}

func TestParseInboundUnhandled(t *testing.T) {
	body := []byte(`{
		"type": "event_callback",
		"event_id": "Ev0004",
		"event": {"type": "reaction_added", "user": "U42"}
	}`)

	_, err := ParseInbound(body)
	assert.ErrorIs(t, err, ErrUnhandledEvent)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrTokenRequired)
}

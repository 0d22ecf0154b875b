package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/respondit/core"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain url",
			text: "have a look at https://example.com/handbook",
			want: []string{"https://example.com/handbook"},
		},
		{
			name: "trailing punctuation trimmed",
			text: "see https://example.com/doc, it covers everything",
			want: []string{"https://example.com/doc"},
		},
		{
			name: "platform angle brackets with label",
			text: "check <https://example.com/policies|our policies>",
			want: []string{"https://example.com/policies"},
		},
		{
			name: "multiple urls",
			text: "http://a.example.com and https://b.example.com/page",
			want: []string{"http://a.example.com", "https://b.example.com/page"},
		},
		{
			name: "closing paren trimmed",
			text: "(docs at https://example.com/wiki)",
			want: []string{"https://example.com/wiki"},
		},
		{
			name: "no urls",
			text: "what is the vacation policy?",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractURLs(tt.text))
		})
	}
}

func TestStripMentions(t *testing.T) {
	assert.Equal(t, "what is the policy?", stripMentions("<@U0123ABCD> what is the policy?"))
	assert.Equal(t, "hello there", stripMentions("<@U1> hello <@U2> there"))
	assert.Equal(t, "hello there", stripMentions("hello <@U2> there"))
	assert.Equal(t, "", stripMentions("  <@U0123ABCD>  "))
	assert.Equal(t, "no mentions here", stripMentions("no mentions here"))
}

func TestClassify(t *testing.T) {
	t.Run("attachments win", func(t *testing.T) {
		event := &core.Event{
			Text:        "here is https://example.com too",
			Attachments: []core.Attachment{{ID: "F1", Name: "a.pdf"}},
		}
		assert.Equal(t, classFileUpload, classify(event))
	})

	t.Run("url in text", func(t *testing.T) {
		event := &core.Event{Text: "index https://example.com/handbook please"}
		assert.Equal(t, classURLUpload, classify(event))
	})

	t.Run("plain text is a question", func(t *testing.T) {
		event := &core.Event{Text: "<@U1> what is the vacation policy?"}
		assert.Equal(t, classQuestion, classify(event))
	})
}

package router

import (
	"regexp"
	"strings"

	"github.com/poiesic/respondit/core"
)

// eventClass is the router's view of what an event asks for.
type eventClass int

const (
	classFileUpload eventClass = iota + 1
	classURLUpload
	classQuestion
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s<>]+`)
	trailingJunk   = regexp.MustCompile(`[^\w/:.-]$`)
	mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)
)

// classify decides how an event should be handled. Attachments win over
// URLs in the text, which win over treating the text as a question.
func classify(event *core.Event) eventClass {
	if len(event.Attachments) > 0 {
		return classFileUpload
	}
	if len(extractURLs(event.Text)) > 0 {
		return classURLUpload
	}
	return classQuestion
}

// extractURLs pulls http(s) URLs out of message text. Chat platforms wrap
// links in angle brackets and users end sentences with punctuation, so
// trailing non-URL characters are trimmed from each match.
func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		// Strip a "|label" suffix from platform-formatted links.
		if cut, _, found := strings.Cut(match, "|"); found {
			match = cut
		}
		for trailingJunk.MatchString(match) {
			match = match[:len(match)-1]
		}
		if match != "" {
			urls = append(urls, match)
		}
	}
	return urls
}

// stripMentions removes bot mention tags so only the question remains.
// Whitespace runs left behind by interior mentions collapse to one space.
func stripMentions(text string) string {
	cleaned := mentionPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

package chunk

import "strings"

// TokenCounter measures and splits text in tokens of some tokenization
// scheme. Implementations must be deterministic.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Split breaks text into pieces of at most maxTokens tokens each,
	// preserving order and content.
	Split(text string, maxTokens int) []string
}

// WordCounter counts whitespace-separated words as tokens. It is a crude
// stand-in for a real tokenizer, good enough for tests and for callers
// that only need rough bounds.
type WordCounter struct{}

var _ TokenCounter = WordCounter{}

func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func (WordCounter) Split(text string, maxTokens int) []string {
	if maxTokens < 1 {
		maxTokens = 1
	}

	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return []string{text}
	}

	pieces := make([]string, 0, (len(words)+maxTokens-1)/maxTokens)
	for start := 0; start < len(words); start += maxTokens {
		end := start + maxTokens
		if end > len(words) {
			end = len(words)
		}
		pieces = append(pieces, strings.Join(words[start:end], " "))
	}
	return pieces
}

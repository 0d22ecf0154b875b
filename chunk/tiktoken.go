package chunk

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a BPE encoding, matching what the
// embedding and completion models actually see. Loading an encoding may
// download its BPE ranks on first use, so construction can fail offline.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

var _ TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %q: %w", encodingName, err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// NewTiktokenCounterForModel loads the encoding used by a model name,
// e.g. "text-embedding-3-small".
func NewTiktokenCounterForModel(model string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("loading encoding for model %q: %w", model, err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

func (c *TiktokenCounter) Split(text string, maxTokens int) []string {
	if maxTokens < 1 {
		maxTokens = 1
	}

	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return []string{text}
	}

	pieces := make([]string, 0, (len(tokens)+maxTokens-1)/maxTokens)
	for start := 0; start < len(tokens); start += maxTokens {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		pieces = append(pieces, c.encoding.Decode(tokens[start:end]))
	}
	return pieces
}

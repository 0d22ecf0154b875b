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


package chunk

import (
	"fmt"
	"strings"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/extract"
)

// Params bound chunk sizes in tokens. MaxTokens must exceed OverlapTokens,
// which must be non-negative.
type Params struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultParams returns the standard chunking parameters.
func DefaultParams() Params {
	return Params{MaxTokens: 512, OverlapTokens: 64}
}

func (p Params) validate() error {
	if p.MaxTokens <= 0 {
		return fmt.Errorf("%w: maxTokens must be positive, got %d", ErrInvalidParams, p.MaxTokens)
	}
	if p.OverlapTokens < 0 {
		return fmt.Errorf("%w: overlapTokens must be non-negative, got %d", ErrInvalidParams, p.OverlapTokens)
	}
	if p.OverlapTokens >= p.MaxTokens {
		return fmt.Errorf("%w: overlapTokens %d must be less than maxTokens %d",
			ErrInvalidParams, p.OverlapTokens, p.MaxTokens)
	}
	return nil
}

// Chunker splits extracted content into token-bounded chunks. It holds no
// mutable state; one Chunker may be shared across goroutines.
type Chunker struct {
	params  Params
	counter TokenCounter
}

// NewChunker creates a Chunker with the given token counter and parameters.
func NewChunker(counter TokenCounter, params Params) (*Chunker, error) {
	if counter == nil {
		return nil, ErrCounterRequired
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Chunker{params: params, counter: counter}, nil
}

// unit is the smallest piece splitting operates on: a sentence for prose,
// a line for tabular content. Oversized units are hard-split before
// accumulation and their fragments marked truncated.
type unit struct {
	text      string
	tokens    int
	truncated bool
}

// Chunk splits content into chunks for docID. Chunk IDs and sequence
// numbers are assigned in order across segments. Empty content yields an
// empty slice and no error.
func (c *Chunker) Chunk(content *extract.Content, docID core.DocumentID) ([]*core.Chunk, error) {
	chunks := []*core.Chunk{}
	if content == nil {
		return chunks, nil
	}

	sequence := 0
	for _, segment := range content.Segments {
		units := c.segmentUnits(segment)
		if len(units) == 0 {
			continue
		}

		separator := " "
		if segment.Tabular {
			separator = "\n"
		}

		for _, group := range c.accumulate(units) {
			chunks = append(chunks, c.buildChunk(docID, sequence, segment.Label, separator, group))
			sequence++
		}
	}

	return chunks, nil
}

// segmentUnits splits a segment into units and hard-splits any unit that
// alone exceeds MaxTokens.
func (c *Chunker) segmentUnits(segment extract.Segment) []unit {
	var rawUnits []string
	if segment.Tabular {
		rawUnits = splitLines(segment.Text)
	} else {
		rawUnits = splitSentences(segment.Text)
	}

	units := make([]unit, 0, len(rawUnits))
	for _, text := range rawUnits {
		tokens := c.counter.Count(text)
		if tokens <= c.params.MaxTokens {
			units = append(units, unit{text: text, tokens: tokens})
			continue
		}

		for _, piece := range c.counter.Split(text, c.params.MaxTokens) {
			units = append(units, unit{
				text:      piece,
				tokens:    c.counter.Count(piece),
				truncated: true,
			})
		}
	}
	return units
}

// accumulate groups units greedily: a chunk closes when the next unit
// would push it past MaxTokens, and the next chunk restarts with the tail
// units of the previous one, up to OverlapTokens.
func (c *Chunker) accumulate(units []unit) [][]unit {
	var groups [][]unit
	var current []unit
	currentTokens := 0

	for _, u := range units {
		if len(current) > 0 && currentTokens+u.tokens > c.params.MaxTokens {
			groups = append(groups, current)

			tail, tailTokens := c.overlapTail(current, u.tokens)
			current = append([]unit(nil), tail...)
			currentTokens = tailTokens
		}
		current = append(current, u)
		currentTokens += u.tokens
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// overlapTail selects trailing units of group totalling at most
// OverlapTokens, shrunk further if the next unit would not fit beside them.
func (c *Chunker) overlapTail(group []unit, nextTokens int) ([]unit, int) {
	budget := c.params.OverlapTokens
	if room := c.params.MaxTokens - nextTokens; room < budget {
		budget = room
	}
	if budget <= 0 {
		return nil, 0
	}

	start := len(group)
	total := 0
	for start > 0 {
		candidate := group[start-1].tokens
		if total+candidate > budget {
			break
		}
		total += candidate
		start--
	}
	return group[start:], total
}

func (c *Chunker) buildChunk(docID core.DocumentID, sequence int, label, separator string, group []unit) *core.Chunk {
	parts := make([]string, len(group))
	truncated := false
	for i, u := range group {
		parts[i] = u.text
		truncated = truncated || u.truncated
	}
	text := strings.Join(parts, separator)

	return &core.Chunk{
		ID:         core.ChunkIDFor(docID, sequence),
		DocumentID: docID,
		Sequence:   sequence,
		Text:       text,
		TokenCount: c.counter.Count(text),
		Metadata: core.ChunkMetadata{
			Label:     label,
			Truncated: truncated,
		},
	}
}

// splitSentences breaks prose into sentences on terminal punctuation
// followed by whitespace. Paragraph breaks also split. Good enough for
// retrieval chunking; no abbreviation handling.
func splitSentences(text string) []string {
	var sentences []string
	var builder strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(builder.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		builder.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush()
			continue
		}

		builder.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

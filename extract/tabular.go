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


package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

func extractCSV(ctx context.Context, name string, data []byte) (*Content, error) {
	return extractTabular(ctx, name, data, ',')
}

func extractTSV(ctx context.Context, name string, data []byte) (*Content, error) {
	return extractTabular(ctx, name, data, '\t')
}

// extractTabular flattens delimited rows into one line per row with cells
// joined by " | ". The row form keeps header and value adjacency intact,
// which embeds far better than a transposed or per-cell rendering.
func extractTabular(_ context.Context, _ string, data []byte, delimiter rune) (*Content, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing tabular data: %w", err)
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		cells := make([]string, 0, len(record))
		for _, cell := range record {
			cells = append(cells, strings.TrimSpace(cell))
		}
		line := strings.Join(cells, " | ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyContent
	}

	return &Content{
		Segments: []Segment{{
			Text:    strings.Join(lines, "\n"),
			Tabular: true,
		}},
	}, nil
}

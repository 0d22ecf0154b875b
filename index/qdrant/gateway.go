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


package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/poiesic/respondit/core"
	"github.com/poiesic/respondit/index"
)

// Config holds the Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string
	// VectorSize is the embedding dimension, fixed per collection.
	VectorSize int
}

// Gateway implements index.Gateway against a Qdrant collection over gRPC.
type Gateway struct {
	conn        *grpc.ClientConn
	points      qdrantclient.PointsClient
	collections qdrantclient.CollectionsClient
	config      Config
	logger      *slog.Logger
}

var _ index.Gateway = (*Gateway)(nil)

// NewGateway connects to Qdrant. The collection is not created here; call
// EnsureCollection once during setup.
func NewGateway(config Config) (*Gateway, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %v", index.ErrUnavailable, addr, err)
	}

	return &Gateway{
		conn:        conn,
		points:      qdrantclient.NewPointsClient(conn),
		collections: qdrantclient.NewCollectionsClient(conn),
		config:      config,
		logger:      slog.Default().With("component", "qdrant-index"),
	}, nil
}

// Close closes the gRPC connection.
func (g *Gateway) Close() error {
	return g.conn.Close()
}

// EnsureCollection creates the collection if it does not exist yet.
func (g *Gateway) EnsureCollection(ctx context.Context) error {
	collections, err := g.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return classify(err)
	}

	for _, col := range collections.GetCollections() {
		if col.GetName() == g.config.Collection {
			return nil
		}
	}

	g.logger.Info("creating collection", "collection", g.config.Collection, "vectorSize", g.config.VectorSize)
	_, err = g.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: g.config.Collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(g.config.VectorSize),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Upsert writes records as points keyed by the numeric form of ChunkID,
// so rewriting a chunk replaces its point.
func (g *Gateway) Upsert(ctx context.Context, records []*core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrantclient.PointStruct, 0, len(records))
	for _, record := range records {
		id, err := pointID(record.ChunkID)
		if err != nil {
			return err
		}
		points = append(points, &qdrantclient.PointStruct{
			Id: id,
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: record.Vector},
				},
			},
			Payload: recordPayload(record),
		})
	}

	wait := true
	_, err := g.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: g.config.Collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return classify(err)
	}

	g.logger.Debug("upserted points", "count", len(points))
	return nil
}

// Query searches the collection. Qdrant already orders by score; equal
// scores are re-sorted by sequence for determinism.
func (g *Gateway) Query(ctx context.Context, vector []float32, k int, filter *index.Filter) ([]*core.ScoredRecord, error) {
	if k <= 0 {
		return []*core.ScoredRecord{}, nil
	}

	resp, err := g.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: g.config.Collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         qdrantFilter(filter),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	results := make([]*core.ScoredRecord, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, &core.ScoredRecord{
			Record: recordFromPayload(point.GetPayload()),
			Score:  point.GetScore(),
		})
	}

	sortByScore(results)

	return results, nil
}

// sortByScore orders results by score descending, ties broken by chunk
// sequence ascending.
func sortByScore(results []*core.ScoredRecord) {
	slices.SortStableFunc(results, func(a, b *core.ScoredRecord) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return a.Record.Sequence - b.Record.Sequence
	})
}

// DeleteByDocument removes all points carrying the document's ID in their
// payload. Qdrant's delete API reports no count, so the points are counted
// first.
func (g *Gateway) DeleteByDocument(ctx context.Context, id core.DocumentID) (int, error) {
	filter := qdrantFilter(&index.Filter{DocumentID: id})

	exact := true
	countResp, err := g.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: g.config.Collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, classify(err)
	}
	count := int(countResp.GetResult().GetCount())
	if count == 0 {
		return 0, nil
	}

	wait := true
	_, err = g.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: g.config.Collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{Filter: filter},
		},
		Wait: &wait,
	})
	if err != nil {
		return 0, classify(err)
	}

	g.logger.Debug("deleted document points", "documentID", id, "count", count)
	return count, nil
}

// pointID converts a ChunkID, a 64-bit hex digest, to a numeric point id.
func pointID(id core.ChunkID) (*qdrantclient.PointId, error) {
	num, err := strconv.ParseUint(string(id), 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk id %q is not a valid point id", index.ErrRejected, id)
	}
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Num{Num: num},
	}, nil
}

func recordPayload(record *core.IndexRecord) map[string]*qdrantclient.Value {
	return map[string]*qdrantclient.Value{
		"chunk_id":      stringValue(string(record.ChunkID)),
		"document_id":   stringValue(string(record.DocumentID)),
		"title":         stringValue(record.Title),
		"source":        stringValue(record.Source),
		"text":          stringValue(record.Text),
		"sequence":      {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(record.Sequence)}},
		"label":         stringValue(record.Label),
		"model_version": stringValue(record.ModelVersion),
	}
}

func recordFromPayload(payload map[string]*qdrantclient.Value) *core.IndexRecord {
	return &core.IndexRecord{
		ChunkID:      core.ChunkID(payload["chunk_id"].GetStringValue()),
		DocumentID:   core.DocumentID(payload["document_id"].GetStringValue()),
		Title:        payload["title"].GetStringValue(),
		Source:       payload["source"].GetStringValue(),
		Text:         payload["text"].GetStringValue(),
		Sequence:     int(payload["sequence"].GetIntegerValue()),
		Label:        payload["label"].GetStringValue(),
		ModelVersion: payload["model_version"].GetStringValue(),
	}
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func qdrantFilter(filter *index.Filter) *qdrantclient.Filter {
	if filter == nil {
		return nil
	}

	var must []*qdrantclient.Condition
	if filter.DocumentID != "" {
		must = append(must, keywordCondition("document_id", string(filter.DocumentID)))
	}
	if filter.ModelVersion != "" {
		must = append(must, keywordCondition("model_version", filter.ModelVersion))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrantclient.Filter{Must: must}
}

func keywordCondition(key, value string) *qdrantclient.Condition {
	return &qdrantclient.Condition{
		ConditionOneOf: &qdrantclient.Condition_Field{
			Field: &qdrantclient.FieldCondition{
				Key: key,
				Match: &qdrantclient.Match{
					MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

// classify maps gRPC failures onto the index error taxonomy.
func classify(err error) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
			return fmt.Errorf("%w: %v", index.ErrRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", index.ErrUnavailable, err)
}

package weaviate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"devkb/internal/vector"
)

// Store adapts the Weaviate client to the vector index contract used by the
// indexer and the retriever. Objects are keyed by a deterministic UUID
// derived from "doc_{id}_chunk_{i}" so re-indexing a document overwrites
// rather than accumulates.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema creates or backfills the DocumentChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

func chunkObjectID(docID int64, chunkIndex int) string {
	key := fmt.Sprintf("doc_%d_chunk_%d", docID, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (s *Store) Upsert(ctx context.Context, rec vector.ChunkRecord) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithID(chunkObjectID(rec.DocID, rec.ChunkIndex)).
		WithProperties(map[string]interface{}{
			"content":    rec.Text,
			"docId":      rec.DocID,
			"chunkIndex": rec.ChunkIndex,
			"language":   rec.Language,
			"intent":     rec.Intent,
			"category":   rec.Category,
			"path":       rec.Path,
		}).
		WithVector(rec.Vector).
		Do(ctx)
	return err
}

// Query returns up to k nearest neighbors, sorted by Weaviate in ascending
// distance. Distance is converted to similarity (1 - cosine distance) here,
// at the collaborator boundary, and hits below minSimilarity are dropped.
func (s *Store) Query(ctx context.Context, vec []float32, k int, minSimilarity float64, f vector.Filter) ([]vector.Hit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "docId"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	query := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...)

	if where := whereFromFilter(f); where != nil {
		query = query.WithWhere(where)
	}

	res, err := query.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []vector.Hit
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	objects, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return hits, nil
	}

	for _, o := range objects {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}

		hit := vector.Hit{}
		if content, ok := props["content"].(string); ok {
			hit.Text = content
		}
		if docID, ok := props["docId"].(float64); ok {
			hit.DocID = int64(docID)
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			hit.ChunkIndex = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				hit.Similarity = 1 - distance
			}
		}

		if hit.Similarity < minSimilarity {
			continue
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

func (s *Store) DeleteByDocument(ctx context.Context, docID int64) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.Equal).
			WithValueInt(docID)).
		Do(ctx)
	return err
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	groups, ok := data[vector.ClassName].([]interface{})
	if !ok || len(groups) == 0 {
		return 0, nil
	}
	group, ok := groups[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := group["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

func whereFromFilter(f vector.Filter) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if f.Language != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"language"}).
			WithOperator(filters.Equal).
			WithValueString(f.Language))
	}
	if f.Category != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueString(f.Category))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

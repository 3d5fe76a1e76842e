package weaviate

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) SaveChunks(ctx context.Context, chunks []pandaqa.Chunk, vectors []pandaqa.Vector) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors must have the same length")
	}

	// Convert our chunks - along with their embedding vectors - into types
	// used by the Weaviate client library.
	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("empty vector")
		}
		properties := map[string]any{
			"text":        chunk.Text,
			"source":      chunk.Metadata.Source,
			"type":        chunk.Metadata.Type,
			"role":        chunk.Metadata.Role,
			"page":        chunk.Metadata.Page,
			"chunk_id":    chunk.Metadata.ChunkID,
			"chunk_count": chunk.Metadata.ChunkCount,
		}
		if !chunk.FileID.IsNil() {
			properties["file_id"] = chunk.FileID.String()
		}
		objects[i] = &models.Object{
			Class:      className,
			Properties: properties,
			Vector:     models.C11yVector(vectors[i]),
		}
	}

	// Store chunks with embeddings in the Weaviate DB.
	_, err := a.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}

	a.logger.Debug("stored objects in weaviate", zap.Int("count", len(objects)))
	return nil
}

var chunkFields = []graphql.Field{
	{Name: "text"},
	{Name: "source"},
	{Name: "type"},
	{Name: "role"},
	{Name: "page"},
	{Name: "chunk_id"},
	{Name: "chunk_count"},
	{Name: "file_id"},
}

func (a *Adapter) SearchChunks(ctx context.Context, filter pandaqa.ChunkFilter, limit int) ([]pandaqa.Chunk, error) {
	if filter.Vector == nil {
		return nil, fmt.Errorf("vector is required for searching chunks")
	}

	gql := a.client.GraphQL()
	nearVector := gql.NearVectorArgBuilder().WithVector([]float32(filter.Vector))

	fields := append([]graphql.Field{}, chunkFields...)
	fields = append(fields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "certainty"}},
	})

	builder := gql.Get().
		WithNearVector(nearVector).
		WithClassName(className).
		WithFields(fields...).
		WithLimit(limit)

	if len(filter.FileIDs) > 0 {
		where := filters.Where()
		where.WithOperator(filters.ContainsAny)
		where.WithPath([]string{"file_id"})
		where.WithValueString(fileIDsToStrings(filter.FileIDs)...)
		builder = builder.WithWhere(where)
	}

	graphqlResponse, err := builder.Do(ctx)
	if err := combinedWeaviateError(graphqlResponse, err); err != nil {
		return nil, err
	}

	return decodeGetChunkResults(graphqlResponse)
}

func (a *Adapter) ListChunks(ctx context.Context, limit int) ([]pandaqa.Chunk, error) {
	builder := a.client.GraphQL().Get().
		WithClassName(className).
		WithFields(chunkFields...).
		WithLimit(limit)

	graphqlResponse, err := builder.Do(ctx)
	if err := combinedWeaviateError(graphqlResponse, err); err != nil {
		return nil, err
	}

	return decodeGetChunkResults(graphqlResponse)
}

func (a *Adapter) DeleteFileChunks(ctx context.Context, id pandaqa.FileID) error {
	where := filters.Where()
	where.WithOperator(filters.Equal)
	where.WithPath([]string{"file_id"})
	where.WithValueString(id.String())

	_, err := a.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(where).
		Do(ctx)
	return err
}

func (a *Adapter) CountChunks(ctx context.Context) (int, error) {
	result, err := a.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err := combinedWeaviateError(result, err); err != nil {
		return 0, err
	}

	return decodeAggregateCount(result)
}

// Clear drops the class and recreates it empty.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		return fmt.Errorf("weaviate error: %w", err)
	}
	return a.init(ctx)
}

func fileIDsToStrings(fileIDs []pandaqa.FileID) []string {
	ids := make([]string, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		ids = append(ids, fileID.String())
	}
	return ids
}

// decodeGetChunkResults decodes the result returned by Weaviate's GraphQL Get
// query; these are returned as a nested map[string]any (just like JSON
// unmarshaled into a map[string]any).
func decodeGetChunkResults(graphqlResponse *models.GraphQLResponse) ([]pandaqa.Chunk, error) {
	data, ok := graphqlResponse.Data["Get"]
	if !ok {
		return nil, fmt.Errorf("get key not found in result")
	}
	doc, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get key unexpected type")
	}
	slc, ok := doc[className].([]any)
	if !ok {
		return nil, fmt.Errorf("chunk is not a list of results")
	}

	var out []pandaqa.Chunk
	for _, s := range slc {
		smap, ok := s.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid element in list of chunks")
		}
		text, ok := smap["text"].(string)
		if !ok {
			return nil, fmt.Errorf("expected text in chunk")
		}

		chunk := pandaqa.Chunk{
			Text: text,
			Metadata: pandaqa.Metadata{
				Source:     stringProp(smap, "source"),
				Type:       stringProp(smap, "type"),
				Role:       stringProp(smap, "role"),
				Page:       intProp(smap, "page"),
				ChunkID:    intProp(smap, "chunk_id"),
				ChunkCount: intProp(smap, "chunk_count"),
			},
		}

		if id := stringProp(smap, "file_id"); id != "" {
			fileID, err := uuid.FromString(id)
			if err != nil {
				return nil, fmt.Errorf("invalid file_id in chunk: %w", err)
			}
			chunk.FileID = pandaqa.FileID{UUID: fileID}
		}

		// Certainty is already normalized to [0,1] by weaviate.
		if additional, ok := smap["_additional"].(map[string]any); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				chunk.Score = certainty
			}
		}

		out = append(out, chunk)
	}
	return out, nil
}

func decodeAggregateCount(graphqlResponse *models.GraphQLResponse) (int, error) {
	data, ok := graphqlResponse.Data["Aggregate"]
	if !ok {
		return 0, fmt.Errorf("aggregate key not found in result")
	}
	agg, ok := data.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("aggregate key unexpected type")
	}
	slc, ok := agg[className].([]any)
	if !ok || len(slc) == 0 {
		return 0, nil
	}
	smap, ok := slc[0].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("invalid aggregate element")
	}
	meta, ok := smap["meta"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("expected meta in aggregate result")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("expected count in aggregate meta")
	}
	return int(count), nil
}

func stringProp(m map[string]any, name string) string {
	v, _ := m[name].(string)
	return v
}

func intProp(m map[string]any, name string) int {
	v, _ := m[name].(float64)
	return int(v)
}

// combinedWeaviateError generates an error if err is non-nil or result has
// errors, and returns an error (or nil if there's no error). It's useful for
// the results of the Weaviate GraphQL API's "Do" calls.
func combinedWeaviateError(graphqlResponse *models.GraphQLResponse, err error) error {
	if err != nil {
		return err
	}
	if len(graphqlResponse.Errors) != 0 {
		var ss []string
		for _, e := range graphqlResponse.Errors {
			ss = append(ss, e.Message)
		}
		return fmt.Errorf("weaviate error: %v", ss)
	}
	return nil
}

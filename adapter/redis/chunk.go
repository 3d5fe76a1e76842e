package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) SaveChunks(ctx context.Context, chunks []pandaqa.Chunk, vectors []pandaqa.Vector) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors must have the same length")
	}

	for i, vector := range vectors {
		chunk := chunks[i]
		if chunk.ID.IsNil() {
			chunk.ID = pandaqa.NewChunkID()
		}
		key := a.indexPrefix + chunk.ID.String()
		fields, err := a.client.HSet(ctx,
			key,
			map[string]any{
				"text":        chunk.Text,
				"file_id":     chunk.FileID.String(),
				"source":      chunk.Metadata.Source,
				"type":        chunk.Metadata.Type,
				"role":        chunk.Metadata.Role,
				"page":        chunk.Metadata.Page,
				"chunk_id":    chunk.Metadata.ChunkID,
				"chunk_count": chunk.Metadata.ChunkCount,
				"embedding":   floatsToBytes(vector),
			},
		).Result()
		if err != nil {
			return err
		}
		if fields == 0 {
			return fmt.Errorf("no fields were added to redis")
		}
	}

	return nil
}

func escapeUUID(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "\\-")
}

var returnFields = []redis.FTSearchReturn{
	{FieldName: "text"},
	{FieldName: "file_id"},
	{FieldName: "source"},
	{FieldName: "type"},
	{FieldName: "role"},
	{FieldName: "page"},
	{FieldName: "chunk_id"},
	{FieldName: "chunk_count"},
}

func (a *Adapter) SearchChunks(ctx context.Context, filter pandaqa.ChunkFilter, limit int) ([]pandaqa.Chunk, error) {
	if filter.Vector == nil {
		return nil, fmt.Errorf("vector is required for searching chunks")
	}

	ids := make([]string, 0, len(filter.FileIDs))
	for _, fileID := range filter.FileIDs {
		ids = append(ids, escapeUUID(fileID.UUID))
	}
	fileIDFilter := strings.Join(ids, "|")

	var query string
	if fileIDFilter != "" {
		query += fmt.Sprintf("(@file_id:{%s})", fileIDFilter)
	} else {
		query += "*"
	}
	query += fmt.Sprintf("=>[KNN %d @embedding $vec AS vector_distance]", limit)

	// The results are ordered according to the value of the vector_distance field,
	// with the lowest distance indicating the greatest similarity to the query.
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			Return:         append([]redis.FTSearchReturn{{FieldName: "vector_distance"}}, returnFields...),
			DialectVersion: a.dialectVersion,
			Params: map[string]any{
				"vec": floatsToBytes(filter.Vector),
			},
			SortBy: []redis.FTSearchSortBy{{FieldName: "vector_distance", Asc: true}},
			Limit:  limit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	for _, doc := range results.Docs {
		a.logger.Debug("search result",
			zap.String("id", doc.ID),
			zap.String("vector_distance", doc.Fields["vector_distance"]),
		)
	}

	return mapRedisChunks(results.Docs)
}

func (a *Adapter) ListChunks(ctx context.Context, limit int) ([]pandaqa.Chunk, error) {
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		"*",
		&redis.FTSearchOptions{
			Return:         returnFields,
			DialectVersion: a.dialectVersion,
			Limit:          limit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	return mapRedisChunks(results.Docs)
}

func (a *Adapter) DeleteFileChunks(ctx context.Context, id pandaqa.FileID) error {
	query := fmt.Sprintf("@file_id:{%s}", escapeUUID(id.UUID))

	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			NoContent:      true,
			DialectVersion: a.dialectVersion,
			Limit:          10000,
		},
	).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(results.Docs))
	for _, doc := range results.Docs {
		keys = append(keys, doc.ID)
	}
	if len(keys) == 0 {
		return nil
	}

	return a.client.Del(ctx, keys...).Err()
}

func (a *Adapter) CountChunks(ctx context.Context) (int, error) {
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		"*",
		&redis.FTSearchOptions{
			NoContent:      true,
			DialectVersion: a.dialectVersion,
			Limit:          0,
		},
	).Result()
	if err != nil {
		return 0, err
	}

	return int(results.Total), nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := a.client.Scan(ctx, cursor, a.indexPrefix+"*", 1000).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := a.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func mapRedisChunks(rds []redis.Document) ([]pandaqa.Chunk, error) {
	chunks := make([]pandaqa.Chunk, 0, len(rds))

	for _, rd := range rds {
		chunk, err := mapRedisChunk(rd)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func mapRedisChunk(rd redis.Document) (pandaqa.Chunk, error) {
	_, ok := rd.Fields["text"]
	if !ok {
		return pandaqa.Chunk{}, fmt.Errorf("missing text field in chunk")
	}

	fileID, err := uuid.FromString(rd.Fields["file_id"])
	if err != nil {
		return pandaqa.Chunk{}, fmt.Errorf("invalid file_id: %v", err)
	}

	chunk := pandaqa.Chunk{
		FileID: pandaqa.FileID{UUID: fileID},
		Text:   rd.Fields["text"],
		Metadata: pandaqa.Metadata{
			Source:     rd.Fields["source"],
			Type:       rd.Fields["type"],
			Role:       rd.Fields["role"],
			Page:       intField(rd.Fields, "page"),
			ChunkID:    intField(rd.Fields, "chunk_id"),
			ChunkCount: intField(rd.Fields, "chunk_count"),
		},
	}

	// For the COSINE metric, distance is 1 - similarity, so the score maps
	// back to [0,1] with higher meaning more similar.
	if distance, ok := rd.Fields["vector_distance"]; ok {
		d, err := strconv.ParseFloat(distance, 64)
		if err != nil {
			return pandaqa.Chunk{}, fmt.Errorf("invalid vector_distance: %v", err)
		}
		chunk.Score = clampScore(1 - d)
	}

	return chunk, nil
}

func intField(fields map[string]string, name string) int {
	v, err := strconv.Atoi(fields[name])
	if err != nil {
		return 0
	}
	return v
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// helper function to convert []float32 to []byte
func floatsToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)

	for i, f := range fs {
		u := math.Float32bits(f)
		binary.NativeEndian.PutUint32(buf[i*4:], u)
	}

	return buf
}

package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandaqa/pandaqa"
)

func TestMapRedisChunk(t *testing.T) {
	t.Parallel()

	fileID := pandaqa.NewFileID()

	t.Run("full chunk with distance", func(t *testing.T) {
		chunk, err := mapRedisChunk(redis.Document{
			ID: "chunk:abc",
			Fields: map[string]string{
				"text":            "refunds are processed within 14 days",
				"file_id":         fileID.String(),
				"source":          "handbook.txt",
				"type":            "text",
				"role":            "sales",
				"page":            "2",
				"chunk_id":        "1",
				"chunk_count":     "4",
				"vector_distance": "0.25",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, fileID, chunk.FileID)
		assert.Equal(t, "refunds are processed within 14 days", chunk.Text)
		assert.Equal(t, "handbook.txt", chunk.Metadata.Source)
		assert.Equal(t, 2, chunk.Metadata.Page)
		assert.Equal(t, 1, chunk.Metadata.ChunkID)
		assert.Equal(t, 4, chunk.Metadata.ChunkCount)
		assert.InDelta(t, 0.75, chunk.Score, 1e-9)
	})

	t.Run("distance above one clamps to zero score", func(t *testing.T) {
		chunk, err := mapRedisChunk(redis.Document{
			Fields: map[string]string{
				"text":            "far away",
				"file_id":         fileID.String(),
				"vector_distance": "1.8",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, chunk.Score)
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := mapRedisChunk(redis.Document{
			Fields: map[string]string{"file_id": fileID.String()},
		})
		require.Error(t, err)
	})

	t.Run("invalid file id", func(t *testing.T) {
		_, err := mapRedisChunk(redis.Document{
			Fields: map[string]string{"text": "a", "file_id": "nope"},
		})
		require.Error(t, err)
	})
}

func TestFloatsToBytes(t *testing.T) {
	t.Parallel()

	b := floatsToBytes([]float32{1, 2, 3})
	assert.Len(t, b, 12)
	assert.Empty(t, floatsToBytes(nil))
}

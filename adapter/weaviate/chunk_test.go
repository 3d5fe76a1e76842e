package weaviate

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/pandaqa/pandaqa"
)

func TestDecodeGetChunkResults(t *testing.T) {
	t.Parallel()

	var (
		fileID1 = uuid.Must(uuid.FromString("9ea0b16a-7f4a-4a22-8ea1-ca2d932bafa8"))
		fileID2 = uuid.Must(uuid.FromString("1ad113d9-38f9-42d1-b205-4383250a4dfd"))
	)

	tests := []struct {
		title       string
		given       *models.GraphQLResponse
		expected    []pandaqa.Chunk
		expectedErr error
	}{
		{
			"Missing Get key",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{},
			},
			nil,
			fmt.Errorf("get key not found in result"),
		},
		{
			"Chunk is not a list",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"Chunk": "bogus",
					},
				},
			},
			nil,
			fmt.Errorf("chunk is not a list of results"),
		},
		{
			"Valid results",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"Chunk": []any{
							map[string]any{
								"text":        "foo",
								"source":      "notes.txt",
								"type":        "text",
								"page":        float64(5),
								"chunk_id":    float64(0),
								"chunk_count": float64(2),
								"file_id":     fileID1.String(),
								"_additional": map[string]any{
									"certainty": 0.91,
								},
							},
							map[string]any{
								"text":    "bar",
								"file_id": fileID2.String(),
							},
						},
					},
				},
			},
			[]pandaqa.Chunk{
				{
					Text:   "foo",
					Score:  0.91,
					FileID: pandaqa.FileID{UUID: fileID1},
					Metadata: pandaqa.Metadata{
						Source:     "notes.txt",
						Type:       "text",
						Page:       5,
						ChunkCount: 2,
					},
				},
				{
					Text:   "bar",
					FileID: pandaqa.FileID{UUID: fileID2},
				},
			},
			nil,
		},
		{
			"Missing text",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"Chunk": []any{
							map[string]any{
								"file_id": fileID1.String(),
							},
						},
					},
				},
			},
			nil,
			fmt.Errorf("expected text in chunk"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			actual, err := decodeGetChunkResults(tc.given)
			if tc.expectedErr != nil {
				require.EqualError(t, err, tc.expectedErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestDecodeAggregateCount(t *testing.T) {
	t.Parallel()

	count, err := decodeAggregateCount(&models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Aggregate": map[string]any{
				"Chunk": []any{
					map[string]any{
						"meta": map[string]any{
							"count": float64(42),
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	_, err = decodeAggregateCount(&models.GraphQLResponse{
		Data: map[string]models.JSONObject{},
	})
	require.Error(t, err)
}

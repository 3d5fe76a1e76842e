package lmstudio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandaqa/pandaqa"
)

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		given    string
		expected string
	}{
		{
			"clean answer passes through",
			"Refunds are processed within 14 days.",
			"Refunds are processed within 14 days.",
		},
		{
			"think tags are stripped",
			"<think>hmm, refunds...</think>Refunds are processed within 14 days.",
			"hmm, refunds...Refunds are processed within 14 days.",
		},
		{
			"format marker wins over preamble",
			"Okay, so for this request I will write it up.\n\nSummary: the knowledge base covers refunds.",
			"Summary: the knowledge base covers refunds.",
		},
		{
			"thinking preamble drops leading paragraphs",
			"Let me think about what matters here.\n\nThe documents cover refunds.\n\nIn conclusion, refunds take 14 days.",
			"The documents cover refunds.\n\nIn conclusion, refunds take 14 days.",
		},
		{
			"thinking lines are filtered",
			"Thinking: what is this about\nRefunds take 14 days.",
			"Refunds take 14 days.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanResponse(tc.given))
		})
	}
}

func newFakeLMStudio(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(WithAPIBase(srv.URL + "/v1"))
}

func TestEmbedChunks(t *testing.T) {
	t.Parallel()

	a := newFakeLMStudio(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
			Object    string    `json:"object"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			data[i] = datum{Index: i, Embedding: []float32{0.1, 0.2, 0.3}, Object: "embedding"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})

	vectors, err := a.EmbedChunks(context.Background(), []pandaqa.Chunk{
		{Text: "first"},
		{Text: "second"},
	})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, pandaqa.Vector{0.1, 0.2, 0.3}, vectors[0])
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("role prompt is sent", func(t *testing.T) {
		var gotSystem string
		a := newFakeLMStudio(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)

			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 2)
			gotSystem = req.Messages[0].Content
			assert.Contains(t, req.Messages[1].Content, "As a sales representative, respond to: what about discounts?")

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"role": "assistant", "content": "We offer volume discounts."}},
				},
			})
		})

		answer, err := a.Generate(context.Background(),
			pandaqa.Query{Text: "what about discounts?", Role: pandaqa.RoleSales},
			[]pandaqa.Chunk{{Text: "discounts start at 10 units", Metadata: pandaqa.Metadata{Source: "pricing.txt"}}},
		)
		require.NoError(t, err)
		assert.Equal(t, "We offer volume discounts.", answer)
		assert.Equal(t, pandaqa.RoleSales.SystemPrompt(), gotSystem)
	})

	t.Run("unreachable server wraps sentinel error", func(t *testing.T) {
		a := New(WithAPIBase("http://127.0.0.1:1/v1"))

		_, err := a.Generate(context.Background(), pandaqa.Query{Text: "anything"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pandaqa.ErrGeneratorUnavailable))
	})

	t.Run("api error is not wrapped", func(t *testing.T) {
		a := newFakeLMStudio(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model not loaded", "type": "invalid_request_error"},
			})
		})

		_, err := a.Generate(context.Background(), pandaqa.Query{Text: "anything"}, nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, pandaqa.ErrGeneratorUnavailable))
	})
}

func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("connected", func(t *testing.T) {
		a := newFakeLMStudio(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/models", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "nomic-embed-text"}, {"id": "gemma-3"}},
			})
		})

		connected, message := a.CheckConnection(context.Background())
		assert.True(t, connected)
		assert.Contains(t, message, "2 models")
	})

	t.Run("unreachable", func(t *testing.T) {
		a := New(WithAPIBase("http://127.0.0.1:1/v1"))

		connected, message := a.CheckConnection(context.Background())
		assert.False(t, connected)
		assert.Contains(t, message, "cannot reach LM Studio")
	})
}

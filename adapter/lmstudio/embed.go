package lmstudio

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) EmbedChunks(ctx context.Context, chunks []pandaqa.Chunk) ([]pandaqa.Vector, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	input := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		input = append(input, chunk.Text)
	}

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.embedModel),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("embedded batch size mismatch: got %d, want %d", len(resp.Data), len(chunks))
	}

	vectors := make([]pandaqa.Vector, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = pandaqa.Vector(d.Embedding)
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (pandaqa.Vector, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.embedModel),
		Input: []string{content},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return pandaqa.Vector(resp.Data[0].Embedding), nil
}

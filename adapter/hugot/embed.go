package hugot

import (
	"context"
	"fmt"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) EmbedChunks(ctx context.Context, chunks []pandaqa.Chunk) ([]pandaqa.Vector, error) {
	sentences := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sentences = append(sentences, chunk.Text)
	}

	result, err := a.pipeline.RunPipeline(sentences)
	if err != nil {
		return nil, err
	}

	embeddings := result.Embeddings

	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	vectors := make([]pandaqa.Vector, 0, len(embeddings))
	for i := range embeddings {
		vectors = append(vectors, embeddings[i])
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (pandaqa.Vector, error) {
	result, err := a.pipeline.RunPipeline([]string{content})
	if err != nil {
		return pandaqa.Vector{}, err
	}
	if len(result.Embeddings) == 0 {
		return pandaqa.Vector{}, fmt.Errorf("empty embedding result")
	}
	return result.Embeddings[0], nil
}

package pandaqa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

const (
	defaultTopK = 3
	maxTopK     = 25

	noResultsAnswer = "No relevant information found."
)

// Query is a question posed against the knowledge base.
type Query struct {
	Text string `json:"text"`
	Role Role   `json:"role"`
	TopK int    `json:"top_k"`
}

func (q Query) Valid() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("query text cannot be empty")
	}
	return nil
}

// Framed returns the query text with the role framing prefix applied.
func (q Query) Framed() string {
	return q.Role.Framing() + q.Text
}

// Answer is the generated response together with the chunks it was based on.
type Answer struct {
	Query    string  `json:"query"`
	Text     string  `json:"answer"`
	Chunks   []Chunk `json:"context"`
	Degraded bool    `json:"degraded"`
}

// Query embeds the question, retrieves the most similar chunks and asks the
// generative model to answer from them. When the model is unreachable the
// answer degrades to a canned role response instead of failing the request.
func (qa *qaServer) Query(ctx context.Context, query Query) (Answer, error) {
	if err := query.Valid(); err != nil {
		return Answer{}, err
	}

	topK := query.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	vector, err := qa.embedder.EmbedContent(ctx, query.Text)
	if err != nil {
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := qa.retriever.SearchChunks(ctx, ChunkFilter{Vector: vector}, topK)
	if err != nil {
		return Answer{}, fmt.Errorf("search chunks: %w", err)
	}

	if len(chunks) == 0 {
		return Answer{
			Query:  query.Text,
			Text:   noResultsAnswer,
			Chunks: []Chunk{},
		}, nil
	}

	answer, err := qa.generative.Generate(ctx, query, chunks)
	if err != nil {
		if errors.Is(err, ErrGeneratorUnavailable) {
			log.Printf("generative model unavailable, degrading: %v", err)
			return Answer{
				Query:    query.Text,
				Text:     query.Role.FallbackAnswer(),
				Chunks:   chunks,
				Degraded: true,
			}, nil
		}
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return Answer{
		Query:  query.Text,
		Text:   answer,
		Chunks: chunks,
	}, nil
}

package pandaqa

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TextInput is raw text submitted directly for processing, bypassing the
// file upload lifecycle.
type TextInput struct {
	Text   string
	Source string
	Role   Role
}

func (in TextInput) Valid() error {
	if strings.TrimSpace(in.Text) == "" {
		return errors.New("text cannot be empty")
	}
	return nil
}

// ProcessText chunks, embeds and stores a piece of raw text synchronously.
// It returns the number of chunks added to the knowledge base.
func (qa *qaServer) ProcessText(ctx context.Context, in TextInput) (int, error) {
	if err := in.Valid(); err != nil {
		return 0, err
	}

	source := in.Source
	if source == "" {
		source = "input"
	}

	extractor, ok := qa.extractors["txt"]
	if !ok {
		return 0, errors.New("no text extractor registered")
	}

	chunks, err := extractor.Extract(ctx, source, strings.NewReader(in.Text))
	if err != nil {
		return 0, fmt.Errorf("extract chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	for i := range chunks {
		chunks[i].Metadata.Source = source
		chunks[i].Metadata.Type = "text"
		chunks[i].Metadata.Role = string(in.Role)
	}

	vectors, err := qa.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	if err := qa.retriever.SaveChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}

	return len(chunks), nil
}

package pandaqa

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Status describes the state of the knowledge base.
type Status struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"document_count"`
}

// LMStatus describes connectivity to the generative backend.
type LMStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	APIBase   string `json:"api_base"`
}

// Summary is a generated overview of the knowledge base contents.
type Summary struct {
	Text          string `json:"summary"`
	DocumentCount int    `json:"document_count"`
	Degraded      bool   `json:"degraded"`
}

const summarizeChunkLimit = 50

func (qa *qaServer) Status(ctx context.Context) (Status, error) {
	count, err := qa.retriever.CountChunks(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count chunks: %w", err)
	}
	return Status{Status: "ready", DocumentCount: count}, nil
}

// Clear removes every chunk from the retriever and every file record and
// stored blob. The file records go first so a partial failure leaves
// orphaned vectors rather than dangling file rows.
func (qa *qaServer) Clear(ctx context.Context) error {
	err := qa.store.Transactional(ctx, nil, func(ctx context.Context) error {
		files, err := qa.store.ListFiles(ctx, FileFilter{}, qa.filePartial(), SortParams{})
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}

		if err := qa.store.DeleteFiles(ctx, files...); err != nil {
			return fmt.Errorf("delete file records: %w", err)
		}

		for _, file := range files {
			if file.Location == "" {
				continue
			}
			if err := qa.files.Delete(file.Location); err != nil {
				log.Printf("delete stored file %s: %v", file.Location, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := qa.retriever.Clear(ctx); err != nil {
		return fmt.Errorf("clear retriever: %w", err)
	}

	return nil
}

func (qa *qaServer) LMStatus(ctx context.Context) LMStatus {
	connected, message := qa.generative.CheckConnection(ctx)
	return LMStatus{
		Connected: connected,
		Message:   message,
		APIBase:   qa.generative.APIBase(),
	}
}

// SaveKnowledgeBase persists the retriever contents under dir. Only
// retrievers that keep state in process support this.
func (qa *qaServer) SaveKnowledgeBase(ctx context.Context, dir string) error {
	persister, ok := qa.retriever.(Persister)
	if !ok {
		return fmt.Errorf("retriever %q does not support persistence", qa.retriever.Name())
	}
	return persister.Persist(ctx, dir)
}

// LoadKnowledgeBase restores previously persisted retriever contents from
// dir and returns the number of chunks loaded.
func (qa *qaServer) LoadKnowledgeBase(ctx context.Context, dir string) (int, error) {
	persister, ok := qa.retriever.(Persister)
	if !ok {
		return 0, fmt.Errorf("retriever %q does not support persistence", qa.retriever.Name())
	}
	return persister.Restore(ctx, dir)
}

// Summarize asks the generative model for an overview of the stored chunks.
func (qa *qaServer) Summarize(ctx context.Context) (Summary, error) {
	chunks, err := qa.retriever.ListChunks(ctx, summarizeChunkLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("list chunks: %w", err)
	}

	if len(chunks) == 0 {
		return Summary{Text: "no documents in the knowledge base. please upload documents first."}, nil
	}

	text, err := qa.generative.Summarize(ctx, chunks)
	if err != nil {
		if errors.Is(err, ErrGeneratorUnavailable) {
			return Summary{
				Text:          "Summary unavailable: the language model is not reachable.",
				DocumentCount: len(chunks),
				Degraded:      true,
			}, nil
		}
		return Summary{}, fmt.Errorf("summarize chunks: %w", err)
	}

	return Summary{Text: text, DocumentCount: len(chunks)}, nil
}

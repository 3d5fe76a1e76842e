package rest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/api"
)

// Knowledge base status
// (GET /api/status)
func (a *Adapter) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	status, err := a.qaServer.Status(ctx)
	if err != nil {
		log.Printf("error getting status: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error getting status: %w", err))
		return
	}

	renderJSON(w, api.StatusResponse{
		Status:        status.Status,
		DocumentCount: status.DocumentCount,
	})
}

// Add raw text to the knowledge base
// (POST /api/process)
func (a *Adapter) ProcessText(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var req api.ProcessRequest
	if err := readRequestJSON(r, &req); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	source := req.Metadata.Source
	if source == "" {
		source = "input"
	}

	count, err := a.qaServer.ProcessText(ctx, pandaqa.TextInput{
		Text:   req.Text,
		Source: req.Metadata.Source,
		Role:   pandaqa.Role(req.Role),
	})
	if err != nil {
		log.Printf("error processing text: %v", err)
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error processing text: %w", err))
		return
	}

	renderJSON(w, api.MessageResponse{
		Message: fmt.Sprintf("Successfully processed %d documents from %s", count, source),
	})
}

// Ask a question against the knowledge base
// (POST /api/query)
func (a *Adapter) Query(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var req api.QueryRequest
	if err := readRequestJSON(r, &req); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	answer, err := a.qaServer.Query(ctx, pandaqa.Query{
		Text: req.Text,
		Role: pandaqa.Role(req.Role),
		TopK: req.TopK,
	})
	if err != nil {
		log.Printf("error answering query: %v", err)
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error answering query: %w", err))
		return
	}

	renderJSON(w, mapAnswer(answer))
}

func mapAnswer(answer pandaqa.Answer) api.QueryResponse {
	resp := api.QueryResponse{
		Query:    answer.Query,
		Answer:   answer.Text,
		Context:  make([]api.Chunk, 0, len(answer.Chunks)),
		Degraded: answer.Degraded,
	}
	for _, chunk := range answer.Chunks {
		resp.Context = append(resp.Context, mapChunk(chunk))
	}
	return resp
}

func mapChunk(chunk pandaqa.Chunk) api.Chunk {
	return api.Chunk{
		Text:  chunk.Text,
		Score: chunk.Score,
		Metadata: api.Metadata{
			Source:     chunk.Metadata.Source,
			Type:       chunk.Metadata.Type,
			Role:       chunk.Metadata.Role,
			Page:       chunk.Metadata.Page,
			ChunkID:    chunk.Metadata.ChunkID,
			ChunkCount: chunk.Metadata.ChunkCount,
		},
	}
}

// Remove all documents from the knowledge base
// (DELETE /api/clear)
func (a *Adapter) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := a.qaServer.Clear(ctx); err != nil {
		log.Printf("error clearing knowledge base: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error clearing knowledge base: %w", err))
		return
	}

	renderJSON(w, api.MessageResponse{Message: "All documents have been cleared"})
}

// Language model connectivity
// (GET /api/lm-status)
func (a *Adapter) GetLMStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	status := a.qaServer.LMStatus(ctx)

	renderJSON(w, api.LMStatusResponse{
		Connected: status.Connected,
		Message:   status.Message,
		APIBase:   status.APIBase,
	})
}

// Persist the knowledge base to disk
// (POST /api/save)
func (a *Adapter) SaveKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var req api.PersistRequest
	if err := readRequestJSON(r, &req); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.Directory == "" {
		renderJSONError(w, http.StatusBadRequest, errors.New("directory cannot be empty"))
		return
	}

	if err := a.qaServer.SaveKnowledgeBase(ctx, req.Directory); err != nil {
		log.Printf("error saving knowledge base: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error saving knowledge base: %w", err))
		return
	}

	renderJSON(w, api.MessageResponse{
		Message: fmt.Sprintf("Successfully saved knowledge base to %s", req.Directory),
	})
}

// Restore a previously persisted knowledge base
// (POST /api/load)
func (a *Adapter) LoadKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var req api.PersistRequest
	if err := readRequestJSON(r, &req); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.Directory == "" {
		renderJSONError(w, http.StatusBadRequest, errors.New("directory cannot be empty"))
		return
	}

	count, err := a.qaServer.LoadKnowledgeBase(ctx, req.Directory)
	if err != nil {
		log.Printf("error loading knowledge base: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error loading knowledge base: %w", err))
		return
	}

	renderJSON(w, api.LoadResponse{
		Message:       fmt.Sprintf("Successfully loaded knowledge base with %d documents", count),
		DocumentCount: count,
	})
}

// Summarize the knowledge base contents
// (POST /api/summarize)
func (a *Adapter) Summarize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	summary, err := a.qaServer.Summarize(ctx)
	if err != nil {
		log.Printf("error summarizing knowledge base: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error summarizing knowledge base: %w", err))
		return
	}

	renderJSON(w, api.SummaryResponse{
		Summary:       summary.Text,
		DocumentCount: summary.DocumentCount,
		Degraded:      summary.Degraded,
	})
}

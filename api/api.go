// Package api defines the JSON types and routing for the HTTP interface.
package api

import (
	"net/http"
	"time"
)

type StatusResponse struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"document_count"`
}

type ProcessRequest struct {
	Text     string          `json:"text"`
	Metadata ProcessMetadata `json:"metadata"`
	Role     string          `json:"role,omitempty"`
}

type ProcessMetadata struct {
	Source string `json:"source,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Error struct {
	Message string `json:"message"`
}

type QueryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
	Role string `json:"role,omitempty"`
}

type QueryResponse struct {
	Query    string  `json:"query"`
	Answer   string  `json:"answer"`
	Context  []Chunk `json:"context"`
	Degraded bool    `json:"degraded"`
}

type Chunk struct {
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	Source     string `json:"source,omitempty"`
	Type       string `json:"type,omitempty"`
	Role       string `json:"role,omitempty"`
	Page       int    `json:"page,omitempty"`
	ChunkID    int    `json:"chunk_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

type LMStatusResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	APIBase   string `json:"api_base"`
}

type PersistRequest struct {
	Directory string `json:"directory"`
}

type LoadResponse struct {
	Message       string `json:"message"`
	DocumentCount int    `json:"document_count"`
}

type SummaryResponse struct {
	Summary       string `json:"summary"`
	DocumentCount int    `json:"document_count"`
	Degraded      bool   `json:"degraded"`
}

type File struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	Extension     string    `json:"extension"`
	Size          int64     `json:"size"`
	Hash          string    `json:"hash"`
	Role          string    `json:"role,omitempty"`
	Status        string    `json:"status"`
	StatusMessage string    `json:"status_message,omitempty"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

type Files struct {
	Files []File `json:"files"`
}

type UploadResponse struct {
	Message string `json:"message"`
	File    File   `json:"file"`
}

// ServerInterface lists the handlers the HTTP mux dispatches to.
type ServerInterface interface {
	GetStatus(w http.ResponseWriter, r *http.Request)
	ProcessText(w http.ResponseWriter, r *http.Request)
	UploadFile(w http.ResponseWriter, r *http.Request)
	Query(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
	GetLMStatus(w http.ResponseWriter, r *http.Request)
	SaveKnowledgeBase(w http.ResponseWriter, r *http.Request)
	LoadKnowledgeBase(w http.ResponseWriter, r *http.Request)
	Summarize(w http.ResponseWriter, r *http.Request)
	ListFiles(w http.ResponseWriter, r *http.Request)
	GetFileByID(w http.ResponseWriter, r *http.Request, id string)
	DeleteFileByID(w http.ResponseWriter, r *http.Request, id string)
}

// HandlerFromMux registers all routes on mux and returns it as a handler.
func HandlerFromMux(si ServerInterface, mux *http.ServeMux) http.Handler {
	mux.HandleFunc("GET /api/status", si.GetStatus)
	mux.HandleFunc("POST /api/process", si.ProcessText)
	mux.HandleFunc("POST /api/upload", si.UploadFile)
	mux.HandleFunc("POST /api/query", si.Query)
	mux.HandleFunc("DELETE /api/clear", si.Clear)
	mux.HandleFunc("GET /api/lm-status", si.GetLMStatus)
	mux.HandleFunc("POST /api/save", si.SaveKnowledgeBase)
	mux.HandleFunc("POST /api/load", si.LoadKnowledgeBase)
	mux.HandleFunc("POST /api/summarize", si.Summarize)
	mux.HandleFunc("GET /api/files", si.ListFiles)
	mux.HandleFunc("GET /api/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		si.GetFileByID(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /api/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		si.DeleteFileByID(w, r, r.PathValue("id"))
	})
	return mux
}

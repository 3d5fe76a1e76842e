package rest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/api"
)

const uploadTimeout = 300 * time.Second

// Upload a file for background processing into the knowledge base
// (POST /api/upload)
func (a *Adapter) UploadFile(w http.ResponseWriter, r *http.Request) {
	var (
		ctx, cancel = context.WithTimeout(r.Context(), uploadTimeout)
		principal   = a.principalFromRequest(r)
	)
	defer cancel()

	// Limit memory usage to 20MB, anything over this limit will be stored in a temporary file.
	r.ParseMultipartForm(pandaqa.MaxFileSize)

	// Limit the size of the request body to prevent large uploads. This will return
	// io.MaxBytesError if the request body exceeds the limit while being read.
	r.Body = http.MaxBytesReader(w, r.Body, pandaqa.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error reading file from request: %w", err))
		return
	}
	defer file.Close()

	role := pandaqa.Role(r.FormValue("role"))

	aFile, err := a.qaServer.CreateFile(ctx, principal, file, header, role)
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error creating file: %w", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	renderJSON(w, api.UploadResponse{
		Message: fmt.Sprintf("File %s uploaded, processing in background", aFile.FileName),
		File:    mapFile(aFile),
	})
}

func mapFile(file *pandaqa.File) api.File {
	return api.File{
		ID:            file.ID.String(),
		FileName:      file.FileName,
		ContentType:   file.ContentType,
		Extension:     file.Extension,
		Size:          file.Size,
		Hash:          file.Hash,
		Role:          string(file.Role),
		Status:        string(file.Status),
		StatusMessage: file.StatusMessage,
		Created:       file.Created.T,
		Updated:       file.Updated.T,
	}
}

// List uploaded files
// (GET /api/files)
func (a *Adapter) ListFiles(w http.ResponseWriter, r *http.Request) {
	var (
		ctx, cancel = context.WithTimeout(r.Context(), defaultTimeout)
		principal   = a.principalFromRequest(r)
	)
	defer cancel()

	files, err := a.qaServer.ListFiles(ctx, principal)
	if err != nil {
		log.Printf("error listing files: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error listing files: %w", err))
		return
	}

	renderJSON(w, mapFiles(files))
}

func mapFiles(files []*pandaqa.File) api.Files {
	apiResponse := api.Files{
		Files: make([]api.File, 0, len(files)),
	}
	for _, file := range files {
		apiResponse.Files = append(apiResponse.Files, mapFile(file))
	}
	return apiResponse
}

// Get a single file by ID
// (GET /api/files/{id})
func (a *Adapter) GetFileByID(w http.ResponseWriter, r *http.Request, id string) {
	var (
		ctx, cancel = context.WithTimeout(r.Context(), defaultTimeout)
		principal   = a.principalFromRequest(r)
	)
	defer cancel()

	fileID, err := uuid.FromString(id)
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid file ID: %w", err))
		return
	}

	aFile, err := a.qaServer.FindFile(ctx, principal, pandaqa.FileID{UUID: fileID})
	if err != nil {
		if errors.Is(err, pandaqa.ErrNotFound) {
			renderJSONError(w, http.StatusNotFound, fmt.Errorf("file not found"))
			return
		}
		log.Printf("error finding file: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error finding file: %w", err))
		return
	}

	renderJSON(w, mapFile(aFile))
}

// Delete a file and its chunks
// (DELETE /api/files/{id})
func (a *Adapter) DeleteFileByID(w http.ResponseWriter, r *http.Request, id string) {
	var (
		ctx, cancel = context.WithTimeout(r.Context(), queryTimeout)
		principal   = a.principalFromRequest(r)
	)
	defer cancel()

	fileID, err := uuid.FromString(id)
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid file ID: %w", err))
		return
	}

	if err := a.qaServer.DeleteFile(ctx, principal, pandaqa.FileID{UUID: fileID}); err != nil {
		if errors.Is(err, pandaqa.ErrNotFound) {
			renderJSONError(w, http.StatusNotFound, fmt.Errorf("file not found"))
			return
		}
		log.Printf("error deleting file: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error deleting file: %w", err))
		return
	}

	renderJSON(w, api.MessageResponse{Message: "File deleted"})
}

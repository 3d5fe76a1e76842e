package pandaqa

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pandaqa/pandaqa/pkg/authz"
)

const (
	MB          = 1 << 20
	MaxFileSize = 20 * MB
)

type FileID struct{ uuid.UUID }

func NewFileID() FileID {
	return FileID{uuid.Must(uuid.NewV4())}
}

type AuthorID struct{ uuid.UUID }

func NewAuthorID() AuthorID {
	return AuthorID{uuid.Must(uuid.NewV4())}
}

type FileStatus string

const (
	FileStatusUploaded              FileStatus = "UPLOADED"
	FileStatusProcessing            FileStatus = "PROCESSING"
	FileStatusProcessedSuccessfully FileStatus = "PROCESSED_SUCCESSFULLY"
	FileStatusProcessingFailed      FileStatus = "PROCESSING_FAILED"
)

type File struct {
	ID            FileID
	AuthorID      AuthorID
	FileName      string
	ContentType   string
	Extension     string
	Size          int64
	Hash          string
	Role          Role
	Embedder      string // adapter used to generate embeddings for this file
	Retriever     string // adapter used to store/retrieve embeddings for this file
	Location      string
	Status        FileStatus
	StatusMessage string
	Created       Time
	Updated       Time
	Chunks        []Chunk
}

// CompleteWithStatus changes the status of a file to a completion status,
// either FileStatusProcessedSuccessfully or FileStatusProcessingFailed.
func (f *File) CompleteWithStatus(newStatus FileStatus, message string, updatedAt time.Time) error {
	if f.Status != FileStatusProcessing {
		return fmt.Errorf("cannot change status from %s to %s", f.Status, newStatus)
	}

	f.Status = newStatus
	f.StatusMessage = message
	f.Updated = Time{T: updatedAt}

	log.Printf("state change for file: %s status: %s", f.ID, f.Status)

	return nil
}

type FileFilter struct {
	Embedder          string
	Retriever         string
	Status            FileStatus
	LastUpdatedBefore Time
}

// Extensions the upload endpoint accepts. Video formats are rejected until
// an external transcription service is wired in.
var allowedExtensions = map[string]string{
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
}

func FileExtension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

// SupportedExtension reports whether uploads with this extension are
// accepted, and the content type they are recorded with.
func SupportedExtension(ext string) (string, bool) {
	contentType, ok := allowedExtensions[ext]
	return contentType, ok
}

func (qa *qaServer) CreateFile(ctx context.Context, principal authz.Principal, file io.ReadSeeker, header *multipart.FileHeader, role Role) (*File, error) {
	ext := FileExtension(header.Filename)
	contentType, ok := SupportedExtension(ext)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	if _, ok := qa.extractors[ext]; !ok {
		return nil, fmt.Errorf("no extractor configured for file type: %s", ext)
	}

	log.Printf("uploading file: %s, size: %d, mime header: %v", header.Filename, header.Size, header.Header)

	hashWriter := sha256.New()
	fileSize, err := io.Copy(hashWriter, file)
	if err != nil {
		return nil, fmt.Errorf("error hashing file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking file to start: %w", err)
	}

	id := NewFileID()
	location := fmt.Sprintf("%s.%s", id, ext)

	if err := qa.files.Write(location, file); err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	aFile := &File{
		ID:          id,
		AuthorID:    AuthorID{principal.ID().UUID},
		FileName:    header.Filename,
		ContentType: contentType,
		Extension:   ext,
		Size:        fileSize,
		Hash:        hex.EncodeToString(hashWriter.Sum(nil)),
		Role:        role.Valid(),
		Embedder:    qa.embedder.Name(),
		Retriever:   qa.retriever.Name(),
		Location:    location,
		Status:      FileStatusUploaded,
		Created:     Time{qa.now()},
		Updated:     Time{qa.now()},
	}

	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := qa.store.SavePrincipal(ctx, principal); err != nil {
			return fmt.Errorf("error saving principal: %w", err)
		}

		if err := qa.store.SaveFiles(ctx, aFile); err != nil {
			return fmt.Errorf("error saving file: %w", err)
		}

		return nil
	}); err != nil {
		if err := qa.files.Delete(location); err != nil {
			log.Printf("error removing stored file: %s", location)
		}
		return nil, fmt.Errorf("error saving file: %v", err)
	}

	return aFile, nil
}

func (qa *qaServer) ListFiles(ctx context.Context, principal authz.Principal) ([]*File, error) {
	var files []*File
	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		files, err = qa.store.ListFiles(ctx, FileFilter{}, qa.filePartial(), SortParams{})
		if err != nil {
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return files, nil
}

func (qa *qaServer) FindFile(ctx context.Context, principal authz.Principal, id FileID) (*File, error) {
	var aFile *File
	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		aFile, err = qa.store.FindFile(ctx, id, qa.filePartial())
		if err != nil {
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return aFile, nil
}

// DeleteFile removes the file record, its stored blob and any chunks it
// contributed to the knowledge base.
func (qa *qaServer) DeleteFile(ctx context.Context, principal authz.Principal, id FileID) error {
	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		aFile, err := qa.store.FindFile(ctx, id, qa.filePartial())
		if err != nil {
			return err
		}

		if err := qa.store.DeleteFiles(ctx, aFile); err != nil {
			return fmt.Errorf("delete file record: %w", err)
		}

		if aFile.Location != "" {
			exists, err := qa.files.Exists(aFile.Location)
			if err != nil {
				return fmt.Errorf("check stored file: %w", err)
			}
			if exists {
				if err := qa.files.Delete(aFile.Location); err != nil {
					return fmt.Errorf("delete stored file: %w", err)
				}
			}
		}

		return nil
	}); err != nil {
		return err
	}

	return qa.retriever.DeleteFileChunks(ctx, id)
}

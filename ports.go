package pandaqa

import (
	"context"
	"database/sql"
	"io"

	"github.com/pandaqa/pandaqa/pkg/authz"
)

// Extractor turns raw file contents into text chunks ready for embedding.
type Extractor interface {
	Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]Chunk, error)
}

// Embedder encodes chunk text as vectors.
type Embedder interface {
	Name() string
	EmbedChunks(ctx context.Context, chunks []Chunk) ([]Vector, error)
	EmbedContent(ctx context.Context, content string) (Vector, error)
}

// Retriever stores embedded chunks and returns the ones nearest to a query
// vector. Scores on returned chunks are normalized to [0,1].
type Retriever interface {
	Name() string
	SaveChunks(ctx context.Context, chunks []Chunk, vectors []Vector) error
	SearchChunks(ctx context.Context, filter ChunkFilter, limit int) ([]Chunk, error)
	ListChunks(ctx context.Context, limit int) ([]Chunk, error)
	DeleteFileChunks(ctx context.Context, id FileID) error
	CountChunks(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Persister is optionally implemented by retrievers that can snapshot the
// knowledge base to a directory and restore it later.
type Persister interface {
	Persist(ctx context.Context, dir string) error
	Restore(ctx context.Context, dir string) (int, error)
}

// GenerativeModel produces answers and summaries from retrieved chunks via
// an external language model server.
type GenerativeModel interface {
	Generate(ctx context.Context, query Query, chunks []Chunk) (string, error)
	Summarize(ctx context.Context, chunks []Chunk) (string, error)
	CheckConnection(ctx context.Context) (bool, string)
	APIBase() string
}

type Store interface {
	Transactional
	FileStore
}

type Transactional interface {
	Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

type FileStore interface {
	SavePrincipal(ctx context.Context, principal authz.Principal) error
	SaveFiles(ctx context.Context, files ...*File) error
	ListFiles(ctx context.Context, filter FileFilter, partial authz.Partial, params SortParams) ([]*File, error)
	FindFile(ctx context.Context, id FileID, partial authz.Partial) (*File, error)
	DeleteFiles(ctx context.Context, files ...*File) error
}

type FileStorage interface {
	Write(filename string, data io.Reader) error
	Exists(filename string) (bool, error)
	Read(filename string) (io.ReadSeekCloser, error)
	Delete(filename string) error
}

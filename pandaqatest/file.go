package pandaqatest

import (
	"time"

	"github.com/pandaqa/pandaqa"
)

type FileOption func(*pandaqa.File)

func WithFileAuthorID(id pandaqa.AuthorID) FileOption {
	return func(f *pandaqa.File) {
		f.AuthorID = id
	}
}

func WithFileEmbedder(embedder string) FileOption {
	return func(f *pandaqa.File) {
		f.Embedder = embedder
	}
}

func WithFileRetriever(retriever string) FileOption {
	return func(f *pandaqa.File) {
		f.Retriever = retriever
	}
}

func WithFileStatus(status pandaqa.FileStatus) FileOption {
	return func(f *pandaqa.File) {
		f.Status = status
	}
}

func WithFileRole(role pandaqa.Role) FileOption {
	return func(f *pandaqa.File) {
		f.Role = role
	}
}

func WithFileExtension(ext, contentType string) FileOption {
	return func(f *pandaqa.File) {
		f.Extension = ext
		f.ContentType = contentType
	}
}

func WithFileCreated(created time.Time) FileOption {
	return func(f *pandaqa.File) {
		f.Created = pandaqa.Time{T: created}
	}
}

func WithFileUpdated(updated time.Time) FileOption {
	return func(f *pandaqa.File) {
		f.Updated = pandaqa.Time{T: updated}
	}
}

var fileStates = []pandaqa.FileStatus{
	pandaqa.FileStatusUploaded,
	pandaqa.FileStatusProcessing,
	pandaqa.FileStatusProcessedSuccessfully,
	pandaqa.FileStatusProcessingFailed,
}

func (g *DataGen) File(options ...FileOption) *pandaqa.File {
	g.ShuffleAnySlice(fileStates)

	aFile := pandaqa.File{
		ID:          pandaqa.NewFileID(),
		AuthorID:    pandaqa.NewAuthorID(),
		FileName:    g.Name() + ".txt",
		ContentType: "text/plain",
		Extension:   "txt",
		Size:        g.Int64(),
		Hash:        g.LetterN(25),
		Embedder:    g.Name(),
		Retriever:   g.Name(),
		Location:    g.Word(),
		Status:      fileStates[0],
		Created:     pandaqa.Time{T: g.now},
		Updated:     pandaqa.Time{T: g.now},
	}

	for _, o := range options {
		o(&aFile)
	}

	return &aFile
}

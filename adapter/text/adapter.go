package text

import (
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
)

// Adapter extracts chunks from plain-text files (txt, md, csv). Content is
// split on sentence boundaries and grouped into overlapping chunks.
type Adapter struct {
	tokenizer    *sentences.DefaultSentenceTokenizer
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

type Option func(*Adapter)

func WithChunkSize(size int) Option {
	return func(a *Adapter) {
		a.chunkSize = size
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(a *Adapter) {
		a.chunkOverlap = overlap
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultChunkSize    = 1024
	defaultChunkOverlap = 200
)

func New(options ...Option) (*Adapter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		tokenizer:    tokenizer,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	if a.chunkOverlap >= a.chunkSize {
		a.chunkOverlap = a.chunkSize / 4
	}

	return a, nil
}

package pandaqa

import (
	"errors"
	"time"

	"github.com/pandaqa/pandaqa/pkg/authz"
)

var ErrNotFound = errors.New("not found")

// ErrGeneratorUnavailable is returned by generative adapters when the
// language model server cannot be reached. The query path downgrades to a
// canned role answer instead of failing the request.
var ErrGeneratorUnavailable = errors.New("generator unavailable")

type clock func() time.Time

type qaServer struct {
	extractors map[string]Extractor
	embedder   Embedder
	retriever  Retriever
	generative GenerativeModel
	store      Store
	files      FileStorage
	now        clock
}

type Option func(*qaServer)

// WithExtractor registers an extractor for the given file extensions.
func WithExtractor(extractor Extractor, extensions ...string) Option {
	return func(qa *qaServer) {
		for _, ext := range extensions {
			qa.extractors[ext] = extractor
		}
	}
}

func New(embedder Embedder, retriever Retriever, gm GenerativeModel, storeAdapter Store, files FileStorage, options ...Option) *qaServer {
	qa := &qaServer{
		extractors: map[string]Extractor{},
		embedder:   embedder,
		retriever:  retriever,
		generative: gm,
		store:      storeAdapter,
		files:      files,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, o := range options {
		o(qa)
	}

	return qa
}

func (qa *qaServer) filePartial() authz.Partial {
	return authz.FilterBy("embedder", qa.embedder.Name()).And("retriever", qa.retriever.Name())
}

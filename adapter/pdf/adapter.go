package pdf

import (
	"net/http"
	"time"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
)

// Adapter extracts chunks from PDF files by delegating layout analysis to an
// external service. Text blocks are split into sentences, tables are turned
// into one chunk per row.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	tokenizer  *sentences.DefaultSentenceTokenizer
	logger     *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = url
	}
}

func WithHttpClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

const defaultBaseURL = "http://pdf-document-layout-analysis:5060"

func New(options ...Option) (*Adapter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		tokenizer:  tokenizer,
		logger:     zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"base URL", a.baseURL,
	).Info("init pdf adapter")

	return a, nil
}

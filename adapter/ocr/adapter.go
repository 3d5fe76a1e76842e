package ocr

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Adapter extracts text from images by delegating recognition to an external
// OCR service. The full recognized text of an image becomes a single chunk.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	languages  []string
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

func WithLanguages(languages ...string) Option {
	return func(a *Adapter) {
		a.languages = languages
	}
}

const defaultBaseURL = "http://ocr:2000"

func New(options ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		languages:  []string{"en"},
		logger:     zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"base URL", a.baseURL,
		"languages", a.languages,
	).Info("init ocr adapter")

	return a
}

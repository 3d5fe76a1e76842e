// Package lmstudio talks to a local LM Studio server through its
// OpenAI-compatible API. It provides both embeddings and generation.
package lmstudio

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

type Adapter struct {
	client      *openai.Client
	logger      *zap.Logger
	apiBase     string
	embedModel  string
	chatModel   string
	temperature float32
	maxTokens   int
}

type Option func(*Adapter)

const (
	defaultAPIBase     = "http://localhost:1234/v1"
	defaultEmbedModel  = "nomic-embed-text"
	defaultTemperature = 0.2
	defaultMaxTokens   = 1000
)

func New(options ...Option) *Adapter {
	a := &Adapter{
		logger:      zap.NewNop(),
		apiBase:     defaultAPIBase,
		embedModel:  defaultEmbedModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}

	for _, o := range options {
		o(a)
	}

	// LM Studio does not check API keys but the client requires one.
	cfg := openai.DefaultConfig("not-needed")
	cfg.BaseURL = a.apiBase
	a.client = openai.NewClientWithConfig(cfg)

	return a
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func WithAPIBase(apiBase string) Option {
	return func(a *Adapter) {
		a.apiBase = apiBase
	}
}

func WithEmbedModel(model string) Option {
	return func(a *Adapter) {
		a.embedModel = model
	}
}

// WithChatModel sets the generation model. LM Studio serves whatever model
// is loaded when left empty.
func WithChatModel(model string) Option {
	return func(a *Adapter) {
		a.chatModel = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(a *Adapter) {
		a.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(a *Adapter) {
		a.maxTokens = maxTokens
	}
}

const adapterName = "lmstudio"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) APIBase() string {
	return a.apiBase
}

// wrapUnavailable tags transport-level failures so callers can downgrade to
// a canned answer. API errors from a reachable server pass through as is.
func wrapUnavailable(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("%w: %v", pandaqa.ErrGeneratorUnavailable, err)
}

func (a *Adapter) CheckConnection(ctx context.Context) (bool, string) {
	models, err := a.client.ListModels(ctx)
	if err != nil {
		return false, fmt.Sprintf("cannot reach LM Studio at %s: %v", a.apiBase, err)
	}
	return true, fmt.Sprintf("connected, %d models available", len(models.Models))
}

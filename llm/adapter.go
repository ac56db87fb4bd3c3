package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/httpclient"
	"github.com/kbukum/ragflow/resilience"
)

var ErrNoDialect = stderrors.New("llm: dialect is required")

// Adapter is a config-driven client for any provider with a registered
// dialect. Calls retry retryable failures and go through a circuit breaker.
type Adapter struct {
	client  *httpclient.Client
	dialect Dialect
	cfg     Config
}

// New creates an adapter for the dialect named in cfg.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(dialect, cfg)
}

// NewWithDialect creates an adapter without consulting the registry.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.Dialect = dialect.Name()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	retry := cfg.Retry
	breaker := cfg.CircuitBreaker
	client, err := httpclient.New(httpclient.Config{
		Name:           dialect.Name(),
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		Auth:           httpclient.BearerAuth(cfg.APIKey),
		Retry:          &retry,
		CircuitBreaker: &breaker,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	return &Adapter{client: client, dialect: dialect, cfg: cfg}, nil
}

func (a *Adapter) Name() string { return a.dialect.Name() }

// Complete sends a completion request. A blank model falls back to the
// configured default.
func (a *Adapter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = a.cfg.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.cfg.MaxTokens
	}
	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("llm: build request: %w", err))
	}

	var raw json.RawMessage
	if err := a.client.PostJSON(ctx, a.dialect.ChatPath(), body, &raw); err != nil {
		return nil, err
	}
	resp, err := a.dialect.ParseResponse(raw)
	if err != nil {
		return nil, a.malformed(err)
	}
	return resp, nil
}

// Generate completes a single user prompt and returns the text.
func (a *Adapter) Generate(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	resp, err := a.Complete(ctx, CompletionRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", a.malformed(stderrors.New("empty completion"))
	}
	return content, nil
}

// Embed returns the embedding of text under the configured embedding model.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := a.dialect.BuildEmbeddingRequest(EmbeddingRequest{Model: a.cfg.EmbeddingModel, Text: text})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("llm: build embedding request: %w", err))
	}
	var raw json.RawMessage
	if err := a.client.PostJSON(ctx, a.dialect.EmbeddingPath(), body, &raw); err != nil {
		return nil, err
	}
	vec, err := a.dialect.ParseEmbeddingResponse(raw)
	if err != nil {
		return nil, a.malformed(err)
	}
	if len(vec) == 0 {
		return nil, a.malformed(stderrors.New("empty embedding"))
	}
	return vec, nil
}

// Ping probes the dialect's health endpoint.
func (a *Adapter) Ping(ctx context.Context) error {
	if a.client.BreakerState() == resilience.StateOpen {
		return errors.ServiceUnavailable(a.Name())
	}
	path := a.dialect.HealthPath()
	if path == "" {
		return nil
	}
	return a.client.GetJSON(ctx, path, nil)
}

// malformed reports a response the dialect could not understand. Retrying
// would get the same answer.
func (a *Adapter) malformed(err error) error {
	appErr := errors.ExternalServiceError(a.Name(), err)
	appErr.Retryable = false
	return appErr
}

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/resilience"
)

// Client sends JSON requests to one remote service.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
}

func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = cfg.Name
		}
		c.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	return c, nil
}

func (c *Client) Name() string { return c.config.Name }

// BreakerState reports the circuit state, or closed when no breaker is set.
func (c *Client) BreakerState() resilience.State {
	if c.cb == nil {
		return resilience.StateClosed
	}
	return c.cb.State()
}

// PostJSON sends in as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Internal(fmt.Errorf("encode %s request: %w", c.config.Name, err))
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// GetJSON decodes the response of a GET into out. A nil out discards it.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	call := func(ctx context.Context) ([]byte, error) {
		return c.guarded(ctx, method, path, body)
	}
	var (
		data []byte
		err  error
	)
	if c.config.Retry != nil {
		data, err = resilience.Retry(ctx, *c.config.Retry, call)
	} else {
		data, err = call(ctx)
	}
	if err != nil {
		if !errors.IsAppError(err) {
			return classifyTransport(ctx, c.config.Name, err)
		}
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		appErr := errors.ExternalServiceError(c.config.Name, fmt.Errorf("decode response: %w", err))
		appErr.Retryable = false
		return appErr
	}
	return nil
}

func (c *Client) guarded(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.cb == nil {
		return c.once(ctx, method, path, body)
	}
	var data []byte
	err := c.cb.Execute(func() error {
		var execErr error
		data, execErr = c.once(ctx, method, path, body)
		return execErr
	})
	return data, err
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := c.buildRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, c.config.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, c.config.Name, fmt.Errorf("read response body: %w", err))
	}
	if appErr := classifyStatus(c.config.Name, resp.StatusCode, data); appErr != nil {
		return nil, appErr
	}
	return data, nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("build %s request: %w", c.config.Name, err))
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.config.Auth.apply(req)
	return req, nil
}

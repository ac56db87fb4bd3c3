package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/resilience"
)

type echo struct {
	Text string `json:"text"`
}

func newClient(t *testing.T, url string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{Name: "test-llm", BaseURL: url, Timeout: time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		var in echo
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(echo{Text: "re: " + in.Text})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL+"/", func(cfg *Config) { cfg.Auth = BearerAuth("secret") })
	var out echo
	if err := c.PostJSON(context.Background(), "/api/generate", echo{Text: "hi"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "re: hi" {
		t.Fatalf("expected 're: hi', got %q", out.Text)
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.ErrorCode
		retryable bool
	}{
		{http.StatusTooManyRequests, errors.ErrCodeRateLimited, true},
		{http.StatusBadGateway, errors.ErrCodeExternalService, true},
		{http.StatusNotFound, errors.ErrCodeExternalService, false},
		{http.StatusBadRequest, errors.ErrCodeExternalService, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"model not found"}`, tt.status)
			}))
			defer srv.Close()

			err := newClient(t, srv.URL, nil).GetJSON(context.Background(), "/x", nil)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code || appErr.Retryable != tt.retryable {
				t.Fatalf("expected %s retryable=%v, got %s retryable=%v", tt.code, tt.retryable, appErr.Code, appErr.Retryable)
			}
			if StatusCode(err) != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, StatusCode(err))
			}
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(echo{Text: "ok"})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Retry = fastRetry() })
	var out echo
	if err := c.GetJSON(context.Background(), "/", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 || out.Text != "ok" {
		t.Fatalf("expected success on third call, got %d calls and %q", calls.Load(), out.Text)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Retry = fastRetry() })
	if err := c.GetJSON(context.Background(), "/", nil); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) {
		cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute}
	})
	for i := 0; i < 2; i++ {
		_ = c.GetJSON(context.Background(), "/", nil)
	}
	if c.BreakerState() != resilience.StateOpen {
		t.Fatalf("expected open breaker, got %s", c.BreakerState())
	}
	err := c.GetJSON(context.Background(), "/", nil)
	if !errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open breaker to skip the call, got %d calls", calls.Load())
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Timeout = 20 * time.Millisecond })
	err := c.GetJSON(context.Background(), "/", nil)
	if !errors.IsCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}

func TestClient_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := newClient(t, srv.URL, nil).GetJSON(ctx, "/", nil)
	if !errors.IsCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.Name != "http" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing base_url")
	}
}

package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/llm"
	"github.com/kbukum/ragflow/llm/ollama"
	"github.com/kbukum/ragflow/llm/openai"
	"github.com/kbukum/ragflow/resilience"
)

var _ dag.Generator = (*llm.Adapter)(nil)

func newAdapter(t *testing.T, dialect, url string) *llm.Adapter {
	t.Helper()
	a, err := llm.New(llm.Config{
		Dialect: dialect,
		BaseURL: url,
		Timeout: time.Second,
		Retry:   resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAdapter_OllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":" Paris. "},"done":true,"prompt_eval_count":7,"eval_count":2}`))
	}))
	defer srv.Close()

	a := newAdapter(t, ollama.DialectName, srv.URL)
	out, err := a.Generate(context.Background(), "Capital of France?", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Paris." {
		t.Fatalf("expected 'Paris.', got %q", out)
	}
	if got["model"] != "llama3" || got["stream"] != false {
		t.Fatalf("expected default model and stream=false, got %v", got)
	}
	opts, _ := got["options"].(map[string]any)
	if opts["temperature"] != float64(0) || opts["num_predict"] != float64(500) {
		t.Fatalf("expected temperature 0 and num_predict 500, got %v", opts)
	}
}

func TestAdapter_OpenAIGenerateAndEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"hi"}}],"usage":{"total_tokens":3}}`))
		case "/v1/embeddings":
			_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: openai.DialectName, BaseURL: srv.URL, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := a.Generate(context.Background(), "hello", "gpt-4o-mini", 0.3)
	if err != nil || out != "hi" {
		t.Fatalf("expected 'hi', got %q (%v)", out, err)
	}
	vec, err := a.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Fatalf("unexpected embedding %v", vec)
	}
}

func TestAdapter_OllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.URL.Path != "/api/embeddings" || req["model"] != "nomic-embed-text" || req["prompt"] != "chunk" {
			t.Errorf("unexpected embedding request %s %v", r.URL.Path, req)
		}
		_, _ = w.Write([]byte(`{"embedding":[1,2,3]}`))
	}))
	defer srv.Close()

	vec, err := newAdapter(t, ollama.DialectName, srv.URL).Embed(context.Background(), "chunk")
	if err != nil || len(vec) != 3 {
		t.Fatalf("expected 3-dim embedding, got %v (%v)", vec, err)
	}
}

func TestAdapter_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      errors.ErrorCode
		retryable bool
		calls     int32
	}{
		{"server error retried", http.StatusInternalServerError, "boom", errors.ErrCodeExternalService, true, 2},
		{"model missing", http.StatusNotFound, `{"error":"model 'x' not found"}`, errors.ErrCodeExternalService, false, 1},
		{"empty completion", http.StatusOK, `{"message":{"content":"  "}}`, errors.ErrCodeExternalService, false, 1},
		{"garbage", http.StatusOK, `not json`, errors.ErrCodeExternalService, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newAdapter(t, ollama.DialectName, srv.URL).Generate(context.Background(), "q", "x", 0)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code || appErr.Retryable != tt.retryable {
				t.Fatalf("expected %s retryable=%v, got %s retryable=%v", tt.code, tt.retryable, appErr.Code, appErr.Retryable)
			}
			if calls.Load() != tt.calls {
				t.Fatalf("expected %d calls, got %d", tt.calls, calls.Load())
			}
		})
	}
}

func TestAdapter_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	if err := newAdapter(t, ollama.DialectName, srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnknownDialect(t *testing.T) {
	if _, err := llm.New(llm.Config{Dialect: "carrier-pigeon", BaseURL: "http://x"}); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
	if _, err := llm.NewWithDialect(nil, llm.Config{}); err != llm.ErrNoDialect {
		t.Fatalf("expected ErrNoDialect, got %v", err)
	}
}

func TestDialects_Registered(t *testing.T) {
	names := llm.Dialects()
	if len(names) != 2 || names[0] != "ollama" || names[1] != "openai" {
		t.Fatalf("expected [ollama openai], got %v", names)
	}
}

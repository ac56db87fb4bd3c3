package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/llm"
	"github.com/kbukum/ragflow/llm/ollama"
	"github.com/kbukum/ragflow/resilience"
)

func TestComponent_Health(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   component.HealthStatus
	}{
		{"reachable", http.StatusOK, component.StatusHealthy},
		{"provider down", http.StatusServiceUnavailable, component.StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"models":[]}`))
			}))
			defer srv.Close()

			c := llm.NewComponent(llm.Config{
				Dialect: ollama.DialectName,
				BaseURL: srv.URL,
				Timeout: time.Second,
				Retry:   resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
			})
			if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
				t.Fatalf("expected unhealthy before start, got %s", h.Status)
			}
			if err := c.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			if c.Adapter() == nil {
				t.Fatal("expected adapter after start")
			}
			if h := c.Health(context.Background()); h.Status != tt.want {
				t.Fatalf("expected %s, got %s (%s)", tt.want, h.Status, h.Message)
			}
		})
	}
}

func TestComponent_StartUnknownDialect(t *testing.T) {
	c := llm.NewComponent(llm.Config{Dialect: "carrier-pigeon", BaseURL: "http://x"})
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestComponent_DescribeMasksKey(t *testing.T) {
	c := llm.NewComponent(llm.Config{Dialect: "openai", BaseURL: "https://api.example.com/v1", APIKey: "sk-live-123456"})
	d := c.Describe()
	if strings.Contains(d.Details, "123456") || !strings.Contains(d.Details, "key=sk-l***") {
		t.Fatalf("expected masked key, got %q", d.Details)
	}
}

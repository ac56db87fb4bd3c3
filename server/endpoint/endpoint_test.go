package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/server/endpoint"
)

func init() { gin.SetMode(gin.TestMode) }

func checker(reports ...component.Health) endpoint.HealthChecker {
	return func(context.Context) []component.Health { return reports }
}

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		reports    []component.Health
		wantCode   int
		wantStatus string
	}{
		{"no components", nil, http.StatusOK, "healthy"},
		{"degraded llm", []component.Health{
			{Name: "database", Status: component.StatusHealthy},
			{Name: "llm", Status: component.StatusDegraded},
		}, http.StatusOK, "degraded"},
		{"redis down", []component.Health{
			{Name: "llm", Status: component.StatusDegraded},
			{Name: "redis", Status: component.StatusUnhealthy},
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(endpoint.Health("ragflow", checker(tt.reports...)))
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var body struct {
				Status     string             `json:"status"`
				Components []component.Health `json:"components"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Fatalf("expected %s, got %s", tt.wantStatus, body.Status)
			}
			if len(body.Components) != len(tt.reports) {
				t.Fatalf("expected %d components, got %d", len(tt.reports), len(body.Components))
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if rr := serve(endpoint.Readiness("ragflow", checker(component.Health{Name: "llm", Status: component.StatusDegraded}))); rr.Code != http.StatusOK {
		t.Fatalf("expected degraded to stay ready, got %d", rr.Code)
	}
	if rr := serve(endpoint.Readiness("ragflow", checker(component.Health{Name: "database", Status: component.StatusUnhealthy}))); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestLiveness(t *testing.T) {
	if rr := serve(endpoint.Liveness("ragflow")); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	rr := serve(endpoint.Info("ragflow"))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "ragflow" {
		t.Fatalf("expected service ragflow, got %v", body["service"])
	}
	if _, ok := body["version"]; !ok {
		t.Fatal("expected version field")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ragflow_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	rr := serve(endpoint.Metrics(reg))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ragflow_test_total 3") {
		t.Fatalf("expected counter in exposition, got:\n%s", rr.Body.String())
	}
}

package dag_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/dag/testutil"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/observability"
)

func TestWithTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	reg := dag.DefaultRegistry()
	reg.Decorate(dag.WithTracing())
	execute(t, dag.NewEngine(reg, dag.EngineConfig{}), linear().Build(), "hello",
		dag.Collaborators{Generator: testutil.NewFakeGenerator("hi")})

	names := map[string]int{}
	for _, s := range rec.Ended() {
		names[s.Name()]++
	}
	if names[observability.SpanWorkflowNode] != 3 || names[observability.SpanWorkflowRun] != 1 {
		t.Fatalf("expected 3 node spans and 1 run span, got %v", names)
	}
}

func TestWithNodeMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	reg := dag.DefaultRegistry()
	reg.Decorate(dag.WithNodeMetrics(m))
	execute(t, dag.NewEngine(reg, dag.EngineConfig{}, dag.WithMetrics(m)), linear().Build(), "hello",
		dag.Collaborators{Generator: testutil.NewFakeGenerator("hi")})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok && metric.Name == "workflow.node.total" {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	if total != 3 {
		t.Fatalf("expected 3 node executions recorded, got %d", total)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "ragflow", &buf)

	reg := dag.DefaultRegistry()
	reg.Decorate(dag.WithLogging(log))
	g := testutil.NewGraph().
		Query("q").Retrieval("ret", "missing", 5).Generation("gen", "llama3", 0).Output("out").
		Chain("q", "ret", "gen", "out").Build()
	execute(t, dag.NewEngine(reg, dag.EngineConfig{}), g, "hello", dag.Collaborators{
		Retriever: testutil.NewFakeRetriever(nil),
		Generator: testutil.NewFakeGenerator("hi"),
	})

	out := buf.String()
	if !strings.Contains(out, "workflow node completed") {
		t.Fatalf("expected completion log, got %s", out)
	}
	if !strings.Contains(out, "workflow node failed") || !strings.Contains(out, `"node":"ret"`) {
		t.Fatalf("expected failure log for ret, got %s", out)
	}
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
func InitMeter(ctx context.Context, cfg Config, svc Service) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the ragflow meter of the global provider.
func Meter() metric.Meter {
	return otel.Meter(tracerName)
}

// Metrics holds the workflow instruments.
type Metrics struct {
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	nodeTotal    metric.Int64Counter
	nodeDuration metric.Float64Histogram
	errorTotal   metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error
	if m.runTotal, err = meter.Int64Counter("workflow.run.total",
		metric.WithDescription("Workflow runs by final status")); err != nil {
		return nil, fmt.Errorf("creating workflow.run.total: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("workflow.run.duration",
		metric.WithDescription("Workflow run duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating workflow.run.duration: %w", err)
	}
	if m.nodeTotal, err = meter.Int64Counter("workflow.node.total",
		metric.WithDescription("Node executions by kind and status")); err != nil {
		return nil, fmt.Errorf("creating workflow.node.total: %w", err)
	}
	if m.nodeDuration, err = meter.Float64Histogram("workflow.node.duration",
		metric.WithDescription("Node handler duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating workflow.node.duration: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total: %w", err)
	}
	return &m, nil
}

// RecordRun records one finished workflow run.
func (m *Metrics) RecordRun(ctx context.Context, status string, d time.Duration) {
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordNode records one handler invocation.
func (m *Metrics) RecordNode(ctx context.Context, kind, status string, d time.Duration) {
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

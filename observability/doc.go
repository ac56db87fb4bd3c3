// Package observability wires OpenTelemetry tracing and metrics.
//
// With observability disabled the global no-op providers stay in place, so
// StartSpan and the Metrics recorders are always safe to call.
package observability

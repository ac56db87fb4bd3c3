// Package endpoint provides the operational handlers: health, readiness,
// liveness, build info and Prometheus metrics.
package endpoint

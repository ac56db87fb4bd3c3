// Package api exposes workflows, runs and documents over HTTP.
//
// Handlers translate requests into calls on the workflow engine and the
// stores behind it, and every failure into an AppError body. Run history is
// optional: with no RunStore configured, runs still execute but the
// history endpoints answer SERVICE_UNAVAILABLE.
package api

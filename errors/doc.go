// Package errors defines the error type shared by every ragflow package.
//
// An AppError carries a machine-readable code, the HTTP status the API layer
// should answer with, and whether the failed operation may be retried.
// Workflow-specific codes distinguish a graph that cannot run
// (WORKFLOW_INVALID) from a payload the editor should never have sent
// (MALFORMED_WORKFLOW).
package errors

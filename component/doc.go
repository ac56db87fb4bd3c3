// Package component manages the lifecycle of the service's infrastructure:
// the workflow database, the run-history cache, the vector store, the LLM
// backend and the HTTP server.
//
// Components start in registration order and stop in reverse. Health
// reports feed the /health endpoint; Describe feeds the startup summary.
package component

// Package app assembles the ragflow service from its configuration.
//
// New builds the HTTP service and NewTask the subset a one-shot CLI run
// needs. Both return a Service whose components start in dependency order:
//
//	telemetry -> llm -> vectorstore -> database -> redis -> http-server
//
// The engine, the retriever and the ingest service are wired once the LLM
// and the vector store are up. The HTTP server is registered and started
// last, after the API routes are mounted.
package app

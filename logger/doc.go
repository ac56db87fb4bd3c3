// Package logger is ragflow's structured logger, a thin wrapper over zerolog.
//
// Fields are passed as maps so call sites read the same everywhere:
//
//	log.Info("workflow node completed", logger.Fields("node", id, "kind", kind))
//
// WithContext picks up the request id set by the HTTP middleware and the
// OpenTelemetry trace id of the active span.
package logger

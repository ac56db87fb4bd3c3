package dag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/observability"
)

// Handler decorators for Registry.Decorate. They wrap reg.Handler and leave
// its output and error untouched.

// WithTracing opens a span per node call.
func WithTracing() func(Registration) Handler {
	return func(reg Registration) Handler {
		next := reg.Handler
		return HandlerFunc(func(ctx context.Context, call Call) (string, error) {
			ctx, span := observability.StartSpan(ctx, observability.SpanWorkflowNode,
				attribute.String(observability.AttrNodeID, call.Node.ID),
				attribute.String(observability.AttrNodeKind, string(reg.Kind)),
			)
			defer span.End()
			out, err := next.Handle(ctx, call)
			observability.SetSpanError(span, err)
			return out, err
		})
	}
}

// WithNodeMetrics records the duration and outcome of each node call.
func WithNodeMetrics(m *observability.Metrics) func(Registration) Handler {
	return func(reg Registration) Handler {
		next := reg.Handler
		return HandlerFunc(func(ctx context.Context, call Call) (string, error) {
			start := time.Now()
			out, err := next.Handle(ctx, call)
			status := string(StatusOK)
			if err != nil {
				status = string(StatusError)
				errType := "unknown"
				if appErr, ok := errors.AsAppError(err); ok {
					errType = string(appErr.Code)
				}
				m.RecordError(ctx, errType, string(reg.Kind))
			}
			m.RecordNode(ctx, string(reg.Kind), status, time.Since(start))
			return out, err
		})
	}
}

// WithLogging logs each node call.
func WithLogging(log *logger.Logger) func(Registration) Handler {
	return func(reg Registration) Handler {
		next := reg.Handler
		return HandlerFunc(func(ctx context.Context, call Call) (string, error) {
			start := time.Now()
			out, err := next.Handle(ctx, call)
			fields := logger.Fields(
				logger.FieldNode, call.Node.ID,
				logger.FieldKind, reg.Kind,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			l := log.WithContext(ctx)
			if err != nil {
				l.Warn("workflow node failed", logger.MergeWithError(fields, err))
				return out, err
			}
			l.Debug("workflow node completed", fields)
			return out, err
		})
	}
}

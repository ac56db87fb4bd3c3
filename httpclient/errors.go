package httpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/ragflow/errors"
)

// maxErrorBody caps how much of a failed response ends up in the message.
const maxErrorBody = 512

// classifyStatus converts a non-2xx response into an AppError. It returns
// nil for 2xx.
func classifyStatus(service string, status int, body []byte) *errors.AppError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return errors.RateLimited(service).WithDetail("status", status)
	case status >= 500:
		return errors.ExternalServiceError(service, fmt.Errorf("HTTP %d: %s", status, snippet(body))).
			WithDetail("status", status)
	default:
		appErr := errors.ExternalServiceError(service, fmt.Errorf("HTTP %d: %s", status, snippet(body))).
			WithDetail("status", status)
		appErr.Retryable = false
		return appErr
	}
}

// classifyTransport converts a failed round trip into an AppError.
func classifyTransport(ctx context.Context, service string, err error) *errors.AppError {
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return errors.Canceled(service).WithCause(err)
	}
	if ctx.Err() != nil || isTimeout(err) {
		return errors.Timeout(service).WithCause(err)
	}
	return errors.ExternalServiceError(service, err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

// StatusCode returns the HTTP status recorded on err, or 0.
func StatusCode(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return 0
	}
	status, _ := appErr.Details["status"].(int)
	return status
}

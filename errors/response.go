package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON body returned to API clients.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
	// Detail repeats the validation problems of a WORKFLOW_INVALID error so
	// the editor can render them without digging into details.
	Detail []string `json:"detail,omitempty"`
}

type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to its JSON body.
func (e *AppError) ToResponse() ErrorResponse {
	resp := ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
	if e.Code == ErrCodeWorkflowInvalid {
		resp.Detail = Problems(e)
	}
	return resp
}

// Problems returns the validation problems carried by a WORKFLOW_INVALID
// error, or nil for any other error.
func Problems(err error) []string {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeWorkflowInvalid {
		return nil
	}
	problems, _ := appErr.Details["problems"].([]string)
	return problems
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError unwraps err to an AppError if one is in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/ragflow/errors"
)

// IsRetryableError reports errors that may clear on a later attempt: a busy
// or locked SQLite file, or a dropped connection.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"driver: bad connection",
		"unable to open database file",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a GORM error into an AppError for resource.
func FromDatabase(err error, resource, key string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, key)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.AlreadyExists(resource, key).WithCause(err)
	case IsRetryableError(err):
		return apperrors.DatabaseError(err)
	default:
		appErr := apperrors.DatabaseError(err)
		appErr.Retryable = false
		return appErr
	}
}

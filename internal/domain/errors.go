package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBatchInProgress is returned when a submission arrives while downloading
	ErrBatchInProgress = errors.New("a download batch is already in progress")

	// ErrWorkerStillRunning is returned when the previous worker has not exited yet
	ErrWorkerStillRunning = errors.New("previous download worker is still running")

	// ErrNoDownloads is returned when there is nothing to bundle
	ErrNoDownloads = errors.New("no downloaded files available")

	// ErrBatchNotFound is returned by the history repository
	ErrBatchNotFound = errors.New("batch not found")
)

// ValidationError reports bad user input; no worker is started
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

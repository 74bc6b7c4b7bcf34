package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the named photo or file does not exist.
	ErrNotFound = errors.New("frame: not found")
	// ErrNoPhotos means the library is empty.
	ErrNoPhotos = errors.New("frame: no photos")
	// ErrBusy means the library lock could not be taken in time. Retryable.
	ErrBusy = errors.New("frame: library busy")
)

// ValidationError rejects a request before anything is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("frame: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

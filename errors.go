package gosearch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned synchronously for malformed requests:
	// non-positive page sizes or limits, conflicting range filters, cursors
	// that do not match the ordering. Never retry it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExecution wraps failures of the storage collaborator.
	ErrExecution = errors.New("execution error")

	// ErrPartialFailure marks a page whose content was fetched but whose
	// count query failed.
	ErrPartialFailure = errors.New("partial failure")
)

func invalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func executionError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExecution, op, err)
}

// PartialFailureError is returned together with a page when the content query
// succeeded but the count query did not. The page content is valid; its total
// is unknown.
type PartialFailureError struct {
	Err error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: count query failed: %v", ErrPartialFailure, e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Err}
}

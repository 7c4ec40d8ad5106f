package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPendingConflict is returned by ResolveConflict when no
	// unresolved conflict is pending for the given record ID.
	ErrNoPendingConflict = errors.New("no pending conflict for record")

	// ErrNoOptimisticState is returned by RollbackLocalChange when no
	// pre-optimistic snapshot exists for the given record ID.
	ErrNoOptimisticState = errors.New("no optimistic state for record")
)

// ValidationError reports a malformed differential payload. It is raised
// before any mutation, so the store is guaranteed unchanged; the caller can
// recover by re-fetching a correct payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payload validation failed: %s", e.Reason)
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

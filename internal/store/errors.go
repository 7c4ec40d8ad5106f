package store

import "errors"

var (
	// ErrRecordNotFound is returned by Get/Update when no record with the
	// requested ID exists.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists is returned by Add when a record with the same ID
	// is already stored.
	ErrRecordExists = errors.New("record already exists")

	// ErrExecutingQuery wraps low-level SQL execution failures so callers
	// can distinguish them from domain errors.
	ErrExecutingQuery = errors.New("error executing query")
)

// ErrorClassificator maps backend-specific driver errors onto the sentinel
// errors above.
type ErrorClassificator interface {
	Classify(err error) error
}

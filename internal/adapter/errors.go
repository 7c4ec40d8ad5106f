package adapter

import "errors"

var (
	// ErrRemoteUnavailable marks transport-level failures: connection
	// refused, timeouts, 5xx responses. The caller may retry later.
	ErrRemoteUnavailable = errors.New("remote source unavailable")

	// ErrBadPayload marks a response that arrived but could not be decoded
	// into a differential payload.
	ErrBadPayload = errors.New("malformed differential payload")
)

package coordinator

import "errors"

var (
	// ErrTimeout means the operation did not complete within the wait
	// window. It may still apply afterwards.
	ErrTimeout = errors.New("operation did not complete within the wait timeout")

	// ErrStopped means the coordinator was closed before the operation
	// completed.
	ErrStopped = errors.New("coordinator is stopped")
)

package engine

import "errors"

// Error kinds. Callers match them with errors.Is; the underlying cause is
// wrapped alongside.
var (
	// ErrUpstream means the search API could not be reached or answered with
	// a non-success status. The cycle is aborted and state is untouched.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrNotification means webhook delivery failed. It never fails a cycle.
	ErrNotification = errors.New("notification delivery failed")

	// ErrPersistence means the state could not be written or read. The
	// mutation did not take effect.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedItem marks a search hit without an identifier. Only that
	// item is skipped.
	ErrMalformedItem = errors.New("item has no identifier")
)

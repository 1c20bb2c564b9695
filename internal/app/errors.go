package app

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrWriteConflict reports that a rating write kept conflicting past the
	// retry bound. Transient: the caller should retry the whole request.
	ErrWriteConflict = errors.New("rating write conflict; retry the request")
)

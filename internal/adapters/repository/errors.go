package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("rating not found")
	ErrConflict = errors.New("rating version conflict")
)

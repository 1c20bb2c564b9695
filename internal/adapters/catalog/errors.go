package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrPhotoNotFound = errors.New("photo not found")
)

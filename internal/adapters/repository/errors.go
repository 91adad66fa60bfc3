package repository

import "errors"

// Sentinel kinds for object store errors.
var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidClass = errors.New("invalid object class")
	ErrInvalidState = errors.New("invalid object state")
)

package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
)

// Error types reported in {"error": {"type": ...}} bodies.
const (
	errTypeNotFound       = "ResourceNotFound"
	errTypeInvalidInput   = "InvalidInput"
	errTypeInvalidState   = "InvalidState"
	errTypeAuthentication = "InvalidAuthentication"
	errTypeInternal       = "InternalError"
)

package transport

import "errors"

// Sentinel kinds for transport errors.
var (
	ErrInvalidBaseURL = errors.New("invalid base URL")
	ErrBodyTooLarge   = errors.New("response body too large")
)

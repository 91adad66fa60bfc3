package nonce

import "errors"

// Sentinel kinds for nonce errors.
var (
	ErrNonceReused = errors.New("nonce reused with a different request")
)

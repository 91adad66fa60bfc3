package dxapi

import (
	"context"
	"net/http"
	"time"
)

// Request is what the dispatcher hands to a Transport.
type Request struct {
	// Route is the route identifier, for logging and metrics.
	Route string
	// Method is the HTTP method of the route.
	Method string
	// Path is the rendered request path, e.g. /record-0001/describe.
	Path string
	// Body is the JSON request body; never empty.
	Body []byte
	// Overrides are the caller's per-call transport settings.
	Overrides Overrides
	// Retryable is set for routes that are safe to re-send.
	Retryable bool
}

// Response is what a Transport returns for a completed round trip, whatever
// its status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends one request to the API server. It returns an error only
// when no response was obtained.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Overrides are per-call transport settings. The dispatcher does not
// interpret them.
type Overrides struct {
	// Header holds extra request headers.
	Header http.Header
	// Timeout bounds the whole call, retries included. Zero means the
	// transport default.
	Timeout time.Duration
	// AlwaysRetry asks the transport to retry even non-retryable routes.
	AlwaysRetry bool
}

// CallOption sets one override.
type CallOption func(*Overrides)

// WithHeader adds a request header.
func WithHeader(key, value string) CallOption {
	return func(o *Overrides) {
		if o.Header == nil {
			o.Header = make(http.Header)
		}
		o.Header.Add(key, value)
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *Overrides) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// WithAlwaysRetry lets the transport retry the call on transient failures
// even when the route is not marked retryable.
func WithAlwaysRetry() CallOption {
	return func(o *Overrides) {
		o.AlwaysRetry = true
	}
}

// newOverrides builds a fresh Overrides for one call.
func newOverrides(opts []CallOption) Overrides {
	var o Overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

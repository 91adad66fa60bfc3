package transport

import (
	"net/http"
	"time"

	"github.com/okian/dxapi/pkg/logger"
)

// Option applies a configuration option to HTTP.
type Option func(*HTTP)

// WithHTTPClient sets the underlying client. Connection pooling and TLS are
// configured there.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.client = c
		}
	}
}

// WithAuth sets the Authorization header sent on every request, e.g.
// ("Bearer", token). An empty token disables it.
func WithAuth(tokenType, token string) Option {
	return func(t *HTTP) {
		if tokenType == "" {
			tokenType = defaultAuthType
		}
		t.authType = tokenType
		t.authToken = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *HTTP) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithMaxRetries sets how many times a retryable call is re-sent after the
// first attempt.
func WithMaxRetries(n int) Option {
	return func(t *HTTP) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay; the n-th retry waits base * 2^(n-1).
func WithBackoff(base time.Duration) Option {
	return func(t *HTTP) {
		if base >= 0 {
			t.backoff = base
		}
	}
}

// WithMaxBackoff caps a single retry delay, Retry-After included.
func WithMaxBackoff(d time.Duration) Option {
	return func(t *HTTP) {
		if d > 0 {
			t.maxBackoff = d
		}
	}
}

// WithTimeout sets the default per-call timeout used when the call carries
// no timeout override. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) {
		if d >= 0 {
			t.timeout = d
		}
	}
}

// WithMaxBodySize limits how many response bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(t *HTTP) {
		if n > 0 {
			t.maxBodySize = n
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l logger.Logger) Option {
	return func(t *HTTP) {
		if l != nil {
			t.logger = l
		}
	}
}

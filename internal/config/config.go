// Package config defines client configuration and its loading from defaults,
// an optional YAML file and DX_ environment variables.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// APIServerProtocol, APIServerHost and APIServerPort locate the API server.
	APIServerProtocol string `koanf:"apiserver_protocol"`
	APIServerHost     string `koanf:"apiserver_host"`
	APIServerPort     int    `koanf:"apiserver_port"`

	// SecurityContextJSON holds {"auth_token_type": "...", "auth_token": "..."}.
	SecurityContextJSON string `koanf:"security_context"`

	// ProjectContextID is the default project for calls that need one.
	ProjectContextID string `koanf:"project_context_id"`

	// UserAgent is sent on every request.
	UserAgent string `koanf:"user_agent"`

	// TimeoutMS is the default per-call timeout; 0 disables it.
	TimeoutMS int `koanf:"timeout_ms"`

	// MaxRetries bounds re-sends of a retryable call after the first attempt.
	MaxRetries int `koanf:"max_retries"`

	// RetryBackoffMS is the base of the exponential retry delay.
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// BatchWorkers sets the number of concurrent batch workers.
	BatchWorkers int `koanf:"batch_workers"`

	// BatchQueueSize bounds the batch job queue.
	BatchQueueSize int `koanf:"batch_queue_size"`

	// StubAddr is the listen address of the stub API server.
	StubAddr string `koanf:"stub_addr"`

	// StubAuthToken, when set, is required as a bearer token by the stub server.
	StubAuthToken string `koanf:"stub_auth_token"`
}

// SecurityContext carries the credentials sent as the Authorization header.
type SecurityContext struct {
	AuthTokenType string `json:"auth_token_type"`
	AuthToken     string `json:"auth_token"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		APIServerProtocol: "https",
		APIServerHost:     "api.dnanexus.com",
		APIServerPort:     443,
		UserAgent:         "dxapi-go",
		TimeoutMS:         0,
		MaxRetries:        4,
		RetryBackoffMS:    1000,
		BatchWorkers:      8,
		BatchQueueSize:    1024,
		StubAddr:          ":8124",
	}
}

// BaseURL returns the API server URL, e.g. https://api.dnanexus.com:443.
func (c *Config) BaseURL() string {
	u := url.URL{
		Scheme: c.APIServerProtocol,
		Host:   net.JoinHostPort(c.APIServerHost, strconv.Itoa(c.APIServerPort)),
	}
	return u.String()
}

// SecurityContext decodes SecurityContextJSON. An empty value yields a zero
// context and no error.
func (c *Config) SecurityContext() (SecurityContext, error) {
	var sc SecurityContext
	if strings.TrimSpace(c.SecurityContextJSON) == "" {
		return sc, nil
	}
	if err := json.Unmarshal([]byte(c.SecurityContextJSON), &sc); err != nil {
		return SecurityContext{}, fmt.Errorf("%w: security_context: %v", ErrInvalidConfig, err)
	}
	return sc, nil
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryBackoff returns RetryBackoffMS as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.APIServerProtocol {
	case "http", "https":
	default:
		return fmt.Errorf("%w: apiserver_protocol must be http or https, got %q", ErrInvalidConfig, c.APIServerProtocol)
	}
	if strings.TrimSpace(c.APIServerHost) == "" {
		return fmt.Errorf("%w: apiserver_host must not be empty", ErrInvalidConfig)
	}
	if c.APIServerPort < 1 || c.APIServerPort > 65535 {
		return fmt.Errorf("%w: apiserver_port out of range: %d", ErrInvalidConfig, c.APIServerPort)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.TimeoutMS < 0 || c.MaxRetries < 0 || c.RetryBackoffMS < 0 {
		return fmt.Errorf("%w: timeout_ms, max_retries and retry_backoff_ms must not be negative", ErrInvalidConfig)
	}
	if c.BatchWorkers < 1 || c.BatchQueueSize < 1 {
		return fmt.Errorf("%w: batch_workers and batch_queue_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.SecurityContext(); err != nil {
		return err
	}
	return nil
}

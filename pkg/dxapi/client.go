package dxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/dxapi/internal/domain/ref"
	"github.com/okian/dxapi/internal/domain/route"
	"github.com/okian/dxapi/pkg/logger"
	"github.com/okian/dxapi/pkg/metrics"
)

// Call outcomes reported to metrics.
const (
	outcomeOK             = "ok"
	outcomeAPIError       = "api_error"
	outcomeTransportError = "transport_error"
	outcomeMalformed      = "malformed_response"
)

var emptyBody = []byte("{}")

// Client dispatches calls to the API through a Transport. It only holds
// read-only configuration and is safe for concurrent use.
type Client struct {
	transport Transport
	routes    *route.Table
	logger    logger.Logger
	metrics   bool
}

// Option configures a Client.
type Option func(*Client)

// WithRoutes replaces the built-in route table.
func WithRoutes(t *route.Table) Option {
	return func(c *Client) {
		if t != nil {
			c.routes = t
		}
	}
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics turns Prometheus recording on or off. It is on by default.
func WithMetrics(enabled bool) Option {
	return func(c *Client) {
		c.metrics = enabled
	}
}

// New creates a Client sending through t.
func New(t Transport, opts ...Option) *Client {
	if t == nil {
		panic("dxapi: nil transport")
	}
	c := &Client{
		transport: t,
		routes:    route.Builtin(),
		logger:    logger.Nop(),
		metrics:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Routes returns the route table used by c.
func (c *Client) Routes() *route.Table {
	return c.routes
}

// CallObject calls an object-scoped route on objectID.
func (c *Client) CallObject(ctx context.Context, routeName, objectID string, body any, opts ...CallOption) (any, error) {
	var out any
	if err := c.CallObjectInto(ctx, routeName, objectID, body, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallObjectInto is like CallObject but decodes the response into out.
func (c *Client) CallObjectInto(ctx context.Context, routeName, objectID string, body, out any, opts ...CallOption) error {
	r, err := c.lookup(routeName, route.Object)
	if err != nil {
		return c.usageFailure(routeName, err)
	}
	id, err := ref.Object(objectID)
	if err != nil {
		return c.usageFailure(routeName, err)
	}
	return c.dispatch(ctx, r, id, body, out, opts)
}

// CallApp calls an app-scoped route. appRef is an app hash ID or name. alias
// only applies to names and defaults to "default"; setting it together with
// a hash ID is a usage error.
func (c *Client) CallApp(ctx context.Context, routeName, appRef, alias string, body any, opts ...CallOption) (any, error) {
	var out any
	if err := c.CallAppInto(ctx, routeName, appRef, alias, body, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallAppInto is like CallApp but decodes the response into out.
func (c *Client) CallAppInto(ctx context.Context, routeName, appRef, alias string, body, out any, opts ...CallOption) error {
	r, err := c.lookup(routeName, route.App)
	if err != nil {
		return c.usageFailure(routeName, err)
	}
	loc, err := ref.App(appRef, alias)
	if err != nil {
		return c.usageFailure(routeName, err)
	}
	return c.dispatch(ctx, r, loc.String(), body, out, opts)
}

// CallGlobal calls a route that takes no reference.
func (c *Client) CallGlobal(ctx context.Context, routeName string, body any, opts ...CallOption) (any, error) {
	var out any
	if err := c.CallGlobalInto(ctx, routeName, body, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallGlobalInto is like CallGlobal but decodes the response into out.
func (c *Client) CallGlobalInto(ctx context.Context, routeName string, body, out any, opts ...CallOption) error {
	r, err := c.lookup(routeName, route.Global)
	if err != nil {
		return c.usageFailure(routeName, err)
	}
	return c.dispatch(ctx, r, "", body, out, opts)
}

// Call dispatches routeName according to its scope. ref must be empty for
// global routes and alias must be empty unless the route is app-scoped.
func (c *Client) Call(ctx context.Context, routeName, reference, alias string, body any, opts ...CallOption) (any, error) {
	r, err := c.routes.Lookup(routeName)
	if err != nil {
		return nil, c.usageFailure(routeName, err)
	}
	if alias != "" && r.Scope != route.App {
		return nil, c.usageFailure(routeName, ErrUnexpectedAlias)
	}
	switch r.Scope {
	case route.Object:
		return c.CallObject(ctx, routeName, reference, body, opts...)
	case route.App:
		return c.CallApp(ctx, routeName, reference, alias, body, opts...)
	default:
		if reference != "" {
			return nil, c.usageFailure(routeName, ErrUnexpectedRef)
		}
		return c.CallGlobal(ctx, routeName, body, opts...)
	}
}

func (c *Client) lookup(name string, scope route.Scope) (route.Route, error) {
	r, err := c.routes.Lookup(name)
	if err != nil {
		return route.Route{}, err
	}
	if r.Scope != scope {
		return route.Route{}, fmt.Errorf("%w: %s is %s-scoped", ErrWrongScope, name, r.Scope)
	}
	return r, nil
}

func (c *Client) usageFailure(op string, err error) error {
	if c.metrics {
		metrics.RecordUsageError(usageReason(err))
	}
	return usage(op, err)
}

// dispatch encodes body, sends it and decodes the response into out.
func (c *Client) dispatch(ctx context.Context, r route.Route, reference string, body, out any, opts []CallOption) error {
	raw, err := encodeBody(body)
	if err != nil {
		return c.usageFailure(r.Name, err)
	}
	req := &Request{
		Route:     r.Name,
		Method:    r.Method,
		Path:      r.Render(reference),
		Body:      raw,
		Overrides: newOverrides(opts),
		Retryable: r.Retryable,
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		c.finish(ctx, r, outcomeTransportError, 0, elapsed)
		return fmt.Errorf("dxapi: %s: %w", r.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.finish(ctx, r, outcomeAPIError, resp.StatusCode, elapsed)
		return newAPIError(r.Name, resp)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		c.finish(ctx, r, outcomeMalformed, resp.StatusCode, elapsed)
		return fmt.Errorf("dxapi: %s: %w: %v", r.Name, ErrMalformedResponse, err)
	}
	c.finish(ctx, r, outcomeOK, resp.StatusCode, elapsed)
	return nil
}

func (c *Client) finish(ctx context.Context, r route.Route, outcome string, status int, elapsed time.Duration) {
	if c.metrics {
		metrics.RecordCall(r.Name, r.Scope.String(), outcome, float64(elapsed.Milliseconds()))
	}
	c.logger.Debug(ctx, "api call",
		logger.String("route", r.Name),
		logger.String("outcome", outcome),
		logger.Int("status", status),
		logger.Duration("elapsed", elapsed),
	)
}

// encodeBody serializes body. nil and JSON null become a fresh {}.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return append([]byte(nil), emptyBody...), nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return append([]byte(nil), emptyBody...), nil
	}
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, ErrScalarBody
	}
	return raw, nil
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

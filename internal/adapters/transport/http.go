// Package transport sends dispatcher requests to the API server over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/okian/dxapi/pkg/logger"
	"github.com/okian/dxapi/pkg/metrics"
)

// Default transport configuration constants.
const (
	defaultAuthType    = "Bearer"
	defaultUserAgent   = "dxapi-go"
	defaultMaxRetries  = 4
	defaultBackoff     = time.Second
	defaultMaxBackoff  = 30 * time.Second
	defaultMaxBodySize = 64 << 20

	headerRequestID  = "X-Request-Id"
	headerRetryAfter = "Retry-After"
	contentTypeJSON  = "application/json"
)

// HTTP implements dxapi.Transport with net/http.
type HTTP struct {
	baseURL     string
	client      *http.Client
	authType    string
	authToken   string
	userAgent   string
	maxRetries  int
	backoff     time.Duration
	maxBackoff  time.Duration
	timeout     time.Duration
	maxBodySize int64
	logger      logger.Logger
}

var _ dxapi.Transport = (*HTTP)(nil)

// New creates an HTTP transport for the server at baseURL, e.g.
// https://api.example.com:443.
func New(baseURL string, opts ...Option) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	t := &HTTP{
		baseURL:     strings.TrimSuffix(u.String(), "/"),
		client:      http.DefaultClient,
		authType:    defaultAuthType,
		userAgent:   defaultUserAgent,
		maxRetries:  defaultMaxRetries,
		backoff:     defaultBackoff,
		maxBackoff:  defaultMaxBackoff,
		maxBodySize: defaultMaxBodySize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Send performs req, retrying transient failures when the route is marked
// retryable or the caller asked for it. A non-2xx status is not an error: the
// last response is returned as is.
func (t *HTTP) Send(ctx context.Context, req *dxapi.Request) (*dxapi.Response, error) {
	timeout := t.timeout
	if req.Overrides.Timeout > 0 {
		timeout = req.Overrides.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tries := 1
	if req.Retryable || req.Overrides.AlwaysRetry {
		tries += t.maxRetries
	}
	requestID := req.Overrides.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	for attempt := 1; ; attempt++ {
		resp, err := t.roundTrip(ctx, req, requestID)
		metrics.RecordTransportAttempt(req.Route, statusClass(resp, err))
		if attempt >= tries || !retryable(resp, err) || ctx.Err() != nil {
			return resp, err
		}

		delay := t.delay(attempt, resp)
		fields := []logger.Field{
			logger.String("route", req.Route),
			logger.String("request_id", requestID),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
		}
		if err != nil {
			fields = append(fields, logger.Error(err))
		} else {
			fields = append(fields, logger.Int("status", resp.StatusCode))
		}
		t.logger.Warn(ctx, "retrying api call", fields...)
		metrics.RecordTransportRetry(req.Route)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry %s: %w", req.Route, ctx.Err())
		case <-timer.C:
		}
	}
}

// roundTrip sends one attempt and reads the whole body.
func (t *HTTP) roundTrip(ctx context.Context, req *dxapi.Request, requestID string) (*dxapi.Response, error) {
	hreq, err := http.NewRequestWithContext(ctx, req.Method, joinURL(t.baseURL, req.Path), bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", contentTypeJSON)
	hreq.Header.Set("Accept", contentTypeJSON)
	hreq.Header.Set("User-Agent", t.userAgent)
	hreq.Header.Set(headerRequestID, requestID)
	if t.authToken != "" {
		hreq.Header.Set("Authorization", t.authType+" "+t.authToken)
	}
	for key, values := range req.Overrides.Header {
		hreq.Header.Del(key)
		for _, v := range values {
			hreq.Header.Add(key, v)
		}
	}

	hresp, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, t.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > t.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, t.maxBodySize)
	}
	return &dxapi.Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: body}, nil
}

// delay returns the wait before retry number attempt. Retry-After on 429 and
// 503 takes precedence over the exponential schedule.
func (t *HTTP) delay(attempt int, resp *dxapi.Response) time.Duration {
	d := t.backoff << (attempt - 1)
	if d < 0 || d > t.maxBackoff {
		d = t.maxBackoff
	}
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if ra, ok := retryAfter(resp.Header.Get(headerRetryAfter)); ok {
			d = min(ra, t.maxBackoff)
		}
	}
	return d
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}

// retryable reports whether an attempt failed transiently.
func retryable(resp *dxapi.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, ErrBodyTooLarge) && !errors.Is(err, context.Canceled)
	}
	return resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
}

func statusClass(resp *dxapi.Response, err error) string {
	if err != nil || resp == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode/100) + "xx"
}

// joinURL appends path to base, which has no trailing slash.
func joinURL(base, path string) string {
	if path == "" {
		return base + "/"
	}
	return base + "/" + strings.TrimPrefix(path, "/")
}

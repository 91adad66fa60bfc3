package dxapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/dxapi/internal/domain/ref"
	"github.com/okian/dxapi/internal/domain/route"
)

// Sentinel kinds. APIError matches ErrAPI and UsageError matches ErrUsage
// through errors.Is.
var (
	ErrAPI               = errors.New("api error")
	ErrUsage             = errors.New("usage error")
	ErrMalformedResponse = errors.New("malformed response body")

	ErrScalarBody      = errors.New("request body must encode to a JSON object or array")
	ErrWrongScope      = errors.New("route called with the wrong reference kind")
	ErrUnexpectedRef   = errors.New("reference given for a route that does not take one")
	ErrUnexpectedAlias = errors.New("alias given for a route that is not app-scoped")
)

// APIError is returned when the server answers with a status outside 2xx.
type APIError struct {
	// Route is the route identifier of the failed call.
	Route string
	// StatusCode is the HTTP status returned by the server.
	StatusCode int
	// Payload is the decoded JSON error body, or the raw body as a string
	// when it is not JSON. Nil for an empty body.
	Payload any
	// Type and Message are lifted from {"error": {"type", "message"}} or
	// {"error": "<type>"} payloads when present.
	Type    string
	Message string
	// Details is the optional "details" member of the error object.
	Details any
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("dxapi: %s: %d %s: %s", e.Route, e.StatusCode, e.Type, e.Message)
	case e.Type != "":
		return fmt.Sprintf("dxapi: %s: %d %s", e.Route, e.StatusCode, e.Type)
	default:
		return fmt.Sprintf("dxapi: %s: %d %s", e.Route, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Is makes errors.Is(err, ErrAPI) true for every APIError.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// newAPIError builds an APIError from a non-success response.
func newAPIError(routeName string, resp *Response) *APIError {
	e := &APIError{Route: routeName, StatusCode: resp.StatusCode}
	if len(resp.Body) == 0 {
		return e
	}
	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		e.Payload = string(resp.Body)
		return e
	}
	e.Payload = payload
	obj, ok := payload.(map[string]any)
	if !ok {
		return e
	}
	switch v := obj["error"].(type) {
	case string:
		e.Type = v
	case map[string]any:
		e.Type, _ = v["type"].(string)
		e.Message, _ = v["message"].(string)
		e.Details = v["details"]
	}
	return e
}

// UsageError reports a call the client rejected before sending it.
type UsageError struct {
	// Op is the route identifier or operation name.
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("dxapi: usage: %s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUsage) true for every UsageError.
func (e *UsageError) Is(target error) bool { return target == ErrUsage }

func usage(op string, err error) *UsageError {
	return &UsageError{Op: op, Err: err}
}

// usageReason maps a usage error to a metrics label.
func usageReason(err error) string {
	switch {
	case errors.Is(err, ref.ErrEmptyObjectRef):
		return "empty_object_ref"
	case errors.Is(err, ref.ErrEmptyAppRef):
		return "empty_app_ref"
	case errors.Is(err, ref.ErrAliasWithHashID):
		return "alias_with_hash_id"
	case errors.Is(err, ref.ErrInvalidAlias), errors.Is(err, ref.ErrInvalidAppName):
		return "invalid_app_ref"
	case errors.Is(err, route.ErrUnknownRoute):
		return "unknown_route"
	case errors.Is(err, ErrWrongScope), errors.Is(err, ErrUnexpectedRef), errors.Is(err, ErrUnexpectedAlias):
		return "wrong_scope"
	case errors.Is(err, ErrScalarBody):
		return "scalar_body"
	default:
		return "other"
	}
}

// Package api serves an in-memory stand-in for the platform API: the same
// /{id}/{method} wire format, JSON bodies and error shape, backed by the
// object repository.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/dxapi/internal/adapters/http/swagger"
	"github.com/okian/dxapi/internal/adapters/repository"
	"github.com/okian/dxapi/internal/domain/nonce"
	"github.com/okian/dxapi/pkg/logger"
)

const (
	defaultUser    = "user-stub"
	maxRequestBody = 8 << 20
)

// Server wires HTTP routes for the stub API.
type Server struct {
	store     repository.Store
	nonces    *nonce.Cache
	authToken string
	user      string
	logger    logger.Logger

	healthHandler *HealthHandler

	mu   sync.RWMutex
	apps *appRegistry
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAuthToken requires bearer authentication with token.
func WithAuthToken(token string) Option {
	return func(s *Server) {
		s.authToken = token
	}
}

// WithUser sets the ID returned by /system/whoami.
func WithUser(id string) Option {
	return func(s *Server) {
		if id != "" {
			s.user = id
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithApp registers an app version reachable by name under the given
// aliases. The first version registered for a name also gets "default".
func WithApp(name, version string, aliases ...string) Option {
	return func(s *Server) {
		_, _ = s.apps.add(name, version, aliases)
	}
}

// NewServer creates a stub API server over store and nonces.
func NewServer(store repository.Store, nonces *nonce.Cache, opts ...Option) *Server {
	s := &Server{
		store:         store,
		nonces:        nonces,
		user:          defaultUser,
		logger:        logger.Nop(),
		healthHandler: NewHealthHandler(),
		apps:          newAppRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// App returns the hash ID registered for name and alias.
func (s *Server) App(name, alias string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apps.resolve(name, alias)
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(MetricsMiddleware(s.logger))

	router.Get("/healthz", s.healthHandler.HandleHealth)
	router.Get("/metrics", s.healthHandler.HandleMetrics)
	swagger.Register(router)

	router.Group(func(authed chi.Router) {
		authed.Use(AuthMiddleware(s.authToken))
		authed.Post("/system/whoami", s.handleWhoami)
		authed.Post("/system/findDataObjects", s.handleFindDataObjects)
		authed.Post("/{target}/{method}", s.handleTarget)
		authed.Post("/{target}/{alias}/{method}", s.handleAppAlias)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errTypeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errTypeInvalidInput, r.Method+" is not allowed on "+r.URL.Path)
	})
	return router
}

// apiError is the {"error": {...}} body.
type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, typ, msg string) {
	writeJSON(w, status, apiError{Error: apiErrorBody{Type: typ, Message: msg}})
}

// writeFailure maps store and input errors to API errors.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, errTypeNotFound, err.Error())
	case errors.Is(err, repository.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, errTypeInvalidState, err.Error())
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidClass), errors.Is(err, nonce.ErrNonceReused):
		writeError(w, http.StatusUnprocessableEntity, errTypeInvalidInput, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, errTypeInternal, err.Error())
	}
}

// readBody returns the raw body, with an empty body read as {}.
func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("{}"), nil
	}
	return raw, nil
}

// decode unmarshals a JSON object body into v.
func decode(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrBadRequest)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

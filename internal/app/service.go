// Package service wires configuration, transport, dispatcher and the batch
// worker pool into the client used by the command line tools.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/dxapi/internal/adapters/mq/queue"
	workerpool "github.com/okian/dxapi/internal/adapters/mq/worker"
	"github.com/okian/dxapi/internal/adapters/transport"
	"github.com/okian/dxapi/internal/config"
	"github.com/okian/dxapi/internal/domain/route"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/okian/dxapi/pkg/logger"
)

// projectScopedNew lists creation routes that take a "project" member,
// filled from the configured project context when the caller leaves it out.
var projectScopedNew = map[string]bool{ //nolint:gochecknoglobals // read-only set
	route.RecordNew: true,
	route.FileNew:   true,
}

// Service holds a configured API client and its batch pool.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	transport dxapi.Transport

	client *dxapi.Client
	pool   *workerpool.Pool

	// Configuration
	batchWorkers   int
	batchQueueSize int

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithTransport replaces the HTTP transport built from the configuration.
func WithTransport(t dxapi.Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transport = t
		}
	}
}

// WithBatchWorkers sets the number of concurrent batch workers.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithBatchQueueSize bounds the batch queue.
func WithBatchQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchQueueSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Batch settings default to the configuration.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	if s.batchWorkers == 0 {
		s.batchWorkers = s.cfg.BatchWorkers
	}
	if s.batchQueueSize == 0 {
		s.batchQueueSize = s.cfg.BatchQueueSize
	}
	return s
}

// Start builds the transport, client and batch pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	t := s.transport
	if t == nil {
		sc, err := s.cfg.SecurityContext()
		if err != nil {
			return err
		}
		t, err = transport.New(s.cfg.BaseURL(),
			transport.WithAuth(sc.AuthTokenType, sc.AuthToken),
			transport.WithUserAgent(s.cfg.UserAgent),
			transport.WithMaxRetries(s.cfg.MaxRetries),
			transport.WithBackoff(s.cfg.RetryBackoff()),
			transport.WithTimeout(s.cfg.Timeout()),
			transport.WithLogger(s.logger.Named("transport")),
		)
		if err != nil {
			return fmt.Errorf("build transport: %w", err)
		}
	}

	s.client = dxapi.New(t, dxapi.WithLogger(s.logger.Named("dxapi")))
	s.pool = workerpool.NewPool(s.batchWorkers, s.client,
		workerpool.WithQueueSize(s.batchQueueSize),
		workerpool.WithPoolLogger(s.logger.Named("batch")),
	)

	s.started = true
	s.logger.Debug(ctx, "client service started",
		logger.String("apiserver", s.cfg.BaseURL()),
		logger.Int("batchWorkers", s.batchWorkers),
		logger.Int("batchQueueSize", s.batchQueueSize),
	)
	return nil
}

// Stop releases the client. A stopped service can be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.client = nil
	s.pool = nil
	s.started = false
	s.logger.Debug(context.Background(), "client service stopped")
}

// Client returns the dispatcher, or nil before Start.
func (s *Service) Client() *dxapi.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Call dispatches routeName by its scope. For record-new and file-new a
// map body without "project" gets the configured project context.
func (s *Service) Call(ctx context.Context, routeName, reference, alias string, body any, opts ...dxapi.CallOption) (any, error) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return nil, ErrNotStarted
	}
	return client.Call(ctx, routeName, reference, alias, s.withProjectContext(routeName, body), opts...)
}

// RunBatch runs jobs on the worker pool and returns results in input order.
func (s *Service) RunBatch(ctx context.Context, jobs []queue.Job) ([]workerpool.Result, error) {
	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()
	if pool == nil {
		return nil, ErrNotStarted
	}
	for i := range jobs {
		jobs[i].Input = s.withProjectContext(jobs[i].Route, jobs[i].Input)
	}
	return pool.Run(ctx, jobs), nil
}

// GetStats returns service settings for diagnostics.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"apiserver":      s.cfg.BaseURL(),
		"batchWorkers":   s.batchWorkers,
		"batchQueueSize": s.batchQueueSize,
	}
	if s.client != nil {
		stats["routes"] = s.client.Routes().Len()
	}
	return stats
}

func (s *Service) withProjectContext(routeName string, body any) any {
	if s.cfg.ProjectContextID == "" || !projectScopedNew[routeName] {
		return body
	}
	switch m := body.(type) {
	case nil:
		return map[string]any{"project": s.cfg.ProjectContextID}
	case map[string]any:
		if _, ok := m["project"]; ok {
			return body
		}
		out := make(map[string]any, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out["project"] = s.cfg.ProjectContextID
		return out
	default:
		return body
	}
}

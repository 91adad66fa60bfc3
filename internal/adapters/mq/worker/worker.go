// Package worker runs batch call jobs from a queue through the dispatcher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/dxapi/internal/adapters/mq/queue"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/okian/dxapi/pkg/logger"
	"github.com/okian/dxapi/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultQueueSize        = 1024
)

// Batch job outcomes reported to metrics.
const (
	outcomeOK         = "ok"
	outcomeAPIError   = "api_error"
	outcomeUsageError = "usage_error"
	outcomeError      = "error"
)

// Caller dispatches one call by route scope. *dxapi.Client implements it.
type Caller interface {
	Call(ctx context.Context, routeName, reference, alias string, body any, opts ...dxapi.CallOption) (any, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is the outcome of one job.
type Result struct {
	Index    int
	Response any
	Err      error
}

// Worker runs jobs until its queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	caller  Caller
	results chan<- Result
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker sending one Result per job to results.
func NewInMemoryWorker(q Queue, caller Caller, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		caller:   caller,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.results <- w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs a single job.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) Result { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.AddBatchWorkersActive(1)
	defer metrics.AddBatchWorkersActive(-1)

	start := time.Now()
	resp, err := w.caller.Call(ctx, job.Route, job.Ref, job.Alias, job.Input, job.Opts...)
	outcome := classify(err)
	metrics.RecordBatchJob(outcome, float64(time.Since(start).Milliseconds()))

	if err != nil {
		w.logger.Debug(ctx, "batch job failed",
			logger.Int("index", job.Index),
			logger.String("route", job.Route),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return Result{Index: job.Index, Err: err}
	}
	return Result{Index: job.Index, Response: resp}
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, dxapi.ErrAPI):
		return outcomeAPIError
	case errors.Is(err, dxapi.ErrUsage):
		return outcomeUsageError
	default:
		return outcomeError
	}
}

// Pool runs batches of jobs on a fixed number of workers. It is safe to
// call Run from several goroutines; each Run gets its own queue.
type Pool struct {
	workerCount int
	queueSize   int
	caller      Caller
	logger      logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, caller Caller, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workerCount: workerCount,
		queueSize:   defaultQueueSize,
		caller:      caller,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes jobs and returns one Result per job in input order. Job
// indexes are reassigned to input positions. Jobs that never ran because ctx
// ended carry the context error.
func (p *Pool) Run(ctx context.Context, jobs []queue.Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(p.queueSize))
	out := make(chan Result, len(jobs))

	workers := make([]*InMemoryWorker, min(p.workerCount, len(jobs)))
	for i := range workers {
		workers[i] = NewInMemoryWorker(q, p.caller, out,
			WithName("batch-worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		go workers[i].Run(ctx)
	}

	go func() {
		defer func() { _ = q.Close() }()
		for i := range jobs {
			job := jobs[i]
			job.Index = i
			if err := q.EnqueueWait(ctx, job); err != nil {
				return
			}
		}
	}()

	seen := make([]bool, len(jobs))
	for received := 0; received < len(jobs); received++ {
		select {
		case r := <-out:
			results[r.Index] = r
			seen[r.Index] = true
		case <-ctx.Done():
			cancel()
			for _, w := range workers {
				<-w.done
			}
			// Drain results that raced with cancellation.
			for len(out) > 0 {
				r := <-out
				results[r.Index] = r
				seen[r.Index] = true
			}
			for i := range results {
				if !seen[i] {
					results[i] = Result{Index: i, Err: ctx.Err()}
				}
			}
			return results
		}
	}

	for _, w := range workers {
		<-w.done
	}
	return results
}

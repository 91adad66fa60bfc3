package worker_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/dxapi/internal/adapters/mq/queue"
	worker "github.com/okian/dxapi/internal/adapters/mq/worker"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/smartystreets/goconvey/convey"
)

// mockCaller echoes the reference back after a random delay and fails
// references listed in errs.
type mockCaller struct {
	mu       sync.Mutex
	errs     map[string]error
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	block    chan struct{}
}

func newMockCaller() *mockCaller {
	return &mockCaller{errs: make(map[string]error)}
}

func (m *mockCaller) Call(ctx context.Context, routeName, reference, alias string, body any, opts ...dxapi.CallOption) (any, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)

	m.mu.Lock()
	err := m.errs[reference]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return map[string]any{"route": routeName, "ref": reference, "alias": alias}, nil
}

func jobs(n int) []queue.Job {
	out := make([]queue.Job, n)
	for i := range out {
		out[i] = queue.Job{Route: "record-describe", Ref: fmt.Sprintf("record-%04d", i)}
	}
	return out
}

func TestPoolRun(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		ctx := context.Background()
		caller := newMockCaller()
		pool := worker.NewPool(4, caller, worker.WithQueueSize(2))

		convey.Convey("When a batch runs", func() {
			results := pool.Run(ctx, jobs(50))

			convey.Convey("Then results come back in input order", func() {
				convey.So(results, convey.ShouldHaveLength, 50)
				for i, r := range results {
					convey.So(r.Index, convey.ShouldEqual, i)
					convey.So(r.Err, convey.ShouldBeNil)
					convey.So(r.Response.(map[string]any)["ref"], convey.ShouldEqual, fmt.Sprintf("record-%04d", i))
				}
				convey.So(caller.calls.Load(), convey.ShouldEqual, 50)
			})

			convey.Convey("And concurrency stays within the worker count", func() {
				convey.So(caller.peak.Load(), convey.ShouldBeLessThanOrEqualTo, 4)
			})
		})

		convey.Convey("When some jobs fail", func() {
			apiErr := &dxapi.APIError{Route: "record-describe", StatusCode: 404}
			caller.errs["record-0003"] = apiErr
			results := pool.Run(ctx, jobs(6))

			convey.Convey("Then only those results carry the error", func() {
				for i, r := range results {
					if i == 3 {
						convey.So(errors.Is(r.Err, dxapi.ErrAPI), convey.ShouldBeTrue)
						convey.So(r.Response, convey.ShouldBeNil)
						continue
					}
					convey.So(r.Err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When the batch is empty", func() {
			convey.So(pool.Run(ctx, nil), convey.ShouldBeEmpty)
		})

		convey.Convey("When the context is canceled mid-batch", func() {
			caller.block = make(chan struct{})
			cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			results := pool.Run(cctx, jobs(20))

			convey.Convey("Then every job reports an outcome", func() {
				convey.So(results, convey.ShouldHaveLength, 20)
				for i, r := range results {
					convey.So(r.Index, convey.ShouldEqual, i)
					convey.So(errors.Is(r.Err, context.DeadlineExceeded), convey.ShouldBeTrue)
				}
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a worker on an open queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		results := make(chan worker.Result, 4)
		w := worker.NewInMemoryWorker(q, newMockCaller(), results, worker.WithName("w-0"))
		ctx := context.Background()
		go w.Run(ctx)

		convey.So(q.Enqueue(ctx, queue.Job{Index: 7, Route: "file-describe", Ref: "file-1"}), convey.ShouldBeTrue)
		r := <-results
		convey.So(r.Index, convey.ShouldEqual, 7)
		convey.So(r.Err, convey.ShouldBeNil)

		sctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
	})
}

package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, Job{Index: 0, Route: "record-describe", Ref: "record-1"}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.Ref != "record-1" || job.Route != "record-describe" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, Job{Index: i}) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
	if q.Enqueue(ctx, Job{Index: 2}) {
		t.Error("expected enqueue to fail when full")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.EnqueueWait(waitCtx, Job{Index: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_EnqueueWaitUnblocks(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()
	if err := q.EnqueueWait(ctx, Job{Index: 0}); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- q.EnqueueWait(ctx, Job{Index: 1}) }()

	jobs := q.Dequeue(ctx)
	if j := <-jobs; j.Index != 0 {
		t.Fatalf("expected job 0, got %d", j.Index)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("EnqueueWait did not unblock")
	}
	if j := <-jobs; j.Index != 1 {
		t.Fatalf("expected job 1, got %d", j.Index)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, Job{Index: 0})
	_ = q.Enqueue(ctx, Job{Index: 1})
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal("second close should be a no-op")
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, Job{Index: 2}) {
		t.Error("expected enqueue on closed queue to fail")
	}
	if err := q.EnqueueWait(ctx, Job{Index: 2}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	var got []int
	for j := range q.Dequeue(ctx) {
		got = append(got, j.Index)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("expected queued jobs to drain in order, got %v", got)
	}
}

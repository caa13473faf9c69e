package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/applyflow/internal/domain/model"
)

func event(id string) model.Event {
	return model.Event{ID: id, Type: model.EventRunCompleted, TS: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if err := q.Enqueue(ctx, event("event1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	got := <-q.Dequeue(dctx)
	if got.ID != "event1" {
		t.Errorf("expected event1, got %v", got.ID)
	}
}

func TestInMemoryQueue_Full(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, event(fmt.Sprint(i))); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Enqueue(ctx, event("overflow")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, event("a"))
	_ = q.Enqueue(ctx, event("b"))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, event("c")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	var ids []string
	for e := range q.Dequeue(ctx) {
		ids = append(ids, e.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected buffered events [a b], got %v", ids)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, event("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected dequeue channel to close on cancelled context")
		}
	case <-time.After(time.Second):
		t.Error("dequeue did not observe cancellation")
	}
}

func TestInMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = q.Enqueue(ctx, event(fmt.Sprintf("%d-%d", g, j)))
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(); l != 500 {
		t.Errorf("expected 500 queued events, got %d", l)
	}
}

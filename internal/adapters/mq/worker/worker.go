// Package worker drains the event queue into a publisher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
	"github.com/okian/applyflow/pkg/metrics"
)

const poolShutdownTimeout = 10 * time.Second

// ErrShutdownTimeout is returned by Pool.Shutdown when workers are still
// busy at the deadline.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// Event is what workers read off the queue.
type Event = model.Event

// Publisher delivers one event downstream.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker consumes events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker publishes queued events one at a time.
type InMemoryWorker struct {
	queue     Queue
	publisher Publisher
	name      string
	logger    logger.Logger

	stopOnce  sync.Once
	shutdown  chan struct{}
	done      chan struct{}
	published int64
	mu        sync.Mutex
}

// NewInMemoryWorker creates a worker reading from queue and publishing to publisher.
func NewInMemoryWorker(queue Queue, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		publisher: publisher,
		name:      "event-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.publish(ctx, e); err != nil {
				w.logger.Error(ctx, "event publish failed",
					logger.String("event_id", e.ID),
					logger.String("type", string(e.Type)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Published returns how many events this worker delivered.
func (w *InMemoryWorker) Published() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.published
}

func (w *InMemoryWorker) publish(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event arrives by value from the channel
	start := time.Now()
	if err := w.publisher.Publish(ctx, e); err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("worker", "publish_error")
		metrics.RecordErrorLatency("worker", "publish_error", metrics.Since(start))
		return fmt.Errorf("publish %s: %w", e.ID, err)
	}
	metrics.RecordEventPublished(string(e.Type), metrics.Since(start))

	w.mu.Lock()
	w.published++
	w.mu.Unlock()
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates count workers sharing queue and publisher. count < 1 means one.
func NewPool(count int, queue Queue, publisher Publisher, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   queue,
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("event-worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, publisher, wopts...)
	}
	p.logger = p.workers[0].logger
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Published sums the deliveries across workers.
func (p *Pool) Published() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Published()
	}
	return n
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shutdown closes the queue so buffered events drain, then waits for the
// workers to exit, at most until ctx ends or poolShutdownTimeout passes.
// Workers still running at the deadline are signaled to stop and the call
// returns ErrShutdownTimeout without waiting for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var stuck []string
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
			w.stopOnce.Do(func() { close(w.shutdown) })
			stuck = append(stuck, w.name)
		}
	}
	if len(stuck) > 0 {
		return fmt.Errorf("%w: %d of %d workers still running: %w",
			ErrShutdownTimeout, len(stuck), len(p.workers), shutdownCtx.Err())
	}
	return nil
}

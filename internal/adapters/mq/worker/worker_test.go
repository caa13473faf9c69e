package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/applyflow/internal/adapters/mq/queue"
	worker "github.com/okian/applyflow/internal/adapters/mq/worker"
	model "github.com/okian/applyflow/internal/domain/model"
	logging "github.com/okian/applyflow/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	fail   map[string]error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[e.ID]; ok {
		return err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.ID
	}
	return out
}

func ev(id string) model.Event {
	return model.Event{ID: id, Type: model.EventStatusChanged, TS: time.Now(), Payload: map[string]any{"job_id": id}}
}

func TestWorkerPublishesQueuedEvents(t *testing.T) {
	convey.Convey("Given a queue with events and a worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		pub := &recordingPublisher{fail: map[string]error{"bad": errors.New("redis down")}}
		w := worker.NewInMemoryWorker(q, pub, worker.WithName("test"), worker.WithLogger(logging.Nop()))

		ctx := context.Background()
		convey.So(q.Enqueue(ctx, ev("a")), convey.ShouldBeNil)
		convey.So(q.Enqueue(ctx, ev("bad")), convey.ShouldBeNil)
		convey.So(q.Enqueue(ctx, ev("b")), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("When the worker runs until the queue drains", func() {
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("worker did not finish")
			}

			convey.Convey("Then successful events are published in order and failures skipped", func() {
				convey.So(pub.ids(), convey.ShouldResemble, []string{"a", "b"})
				convey.So(w.Published(), convey.ShouldEqual, 2)
			})

			convey.Convey("Then shutdown after exit returns immediately", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a worker blocked on an empty queue", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, &recordingPublisher{}, worker.WithLogger(logging.Nop()))
		go w.Run(context.Background())

		convey.Convey("When shutting down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then the loop exits without error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPoolDrainsOnShutdown(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pub := &recordingPublisher{}
		p := worker.NewPool(3, q, pub, worker.WithLogger(logging.Nop()))
		convey.So(p.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		p.Start(ctx)
		for _, id := range []string{"1", "2", "3", "4", "5"} {
			convey.So(q.Enqueue(ctx, ev(id)), convey.ShouldBeNil)
		}

		convey.Convey("When shutting the pool down", func() {
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then every buffered event was published", func() {
				convey.So(len(pub.ids()), convey.ShouldEqual, 5)
				convey.So(p.Published(), convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingPublisher) Publish(context.Context, model.Event) error {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return nil
}

func TestPoolShutdownTimeout(t *testing.T) {
	convey.Convey("Given a pool whose worker is stuck publishing", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		pub := &blockingPublisher{started: make(chan struct{}), release: make(chan struct{})}
		defer close(pub.release)
		p := worker.NewPool(1, q, pub, worker.WithLogger(logging.Nop()))

		ctx := context.Background()
		p.Start(ctx)
		convey.So(q.Enqueue(ctx, ev("slow")), convey.ShouldBeNil)
		<-pub.started

		convey.Convey("When the shutdown deadline passes first", func() {
			sctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			err := p.Shutdown(sctx)

			convey.Convey("Then the timeout is reported", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(p.Published(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestNewPoolMinimumSize(t *testing.T) {
	convey.Convey("Given a non-positive worker count", t, func() {
		p := worker.NewPool(0, queue.NewInMemoryQueue(), &recordingPublisher{}, worker.WithLogger(logging.Nop()))
		convey.So(p.Size(), convey.ShouldEqual, 1)
	})
}

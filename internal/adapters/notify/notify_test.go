package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
)

type fakeRedis struct {
	channel string
	message []byte
	err     error
	closed  bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() model.Event {
	return model.Event{
		ID:      "evt-1",
		Type:    model.EventRunCompleted,
		TS:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Payload: map[string]any{"saved": 3},
	}
}

func TestRedisPublisher(t *testing.T) {
	Convey("Given a redis publisher over a fake client", t, func() {
		fake := &fakeRedis{}
		p := newRedisPublisher(fake, "")

		Convey("Then the default channel is used", func() {
			So(p.Channel(), ShouldEqual, DefaultChannel)
		})

		Convey("When publishing an event", func() {
			err := p.Publish(context.Background(), sampleEvent())

			Convey("Then the JSON event reaches the channel", func() {
				So(err, ShouldBeNil)
				So(fake.channel, ShouldEqual, "applyflow:events")
				var decoded map[string]any
				So(json.Unmarshal(fake.message, &decoded), ShouldBeNil)
				So(decoded["id"], ShouldEqual, "evt-1")
				So(decoded["type"], ShouldEqual, "run.completed")
				So(decoded["payload"].(map[string]any)["saved"], ShouldEqual, float64(3))
			})
		})

		Convey("When the broker fails", func() {
			fake.err = errors.New("connection refused")
			err := p.Publish(context.Background(), sampleEvent())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection refused")
		})

		Convey("When closing", func() {
			So(p.Close(), ShouldBeNil)
			So(fake.closed, ShouldBeTrue)
		})
	})
}

func TestLogPublisher(t *testing.T) {
	Convey("Given a log publisher on an observer core", t, func() {
		core, logs := observer.New(zapcore.InfoLevel)
		p := NewLogPublisher(logger.NewWithCore(core))

		So(p.Publish(context.Background(), sampleEvent()), ShouldBeNil)
		So(logs.Len(), ShouldEqual, 1)
		fields := logs.All()[0].ContextMap()
		So(fields["type"], ShouldEqual, "run.completed")
		So(fields["saved"], ShouldEqual, int64(3))
		So(p.Close(), ShouldBeNil)
	})
}

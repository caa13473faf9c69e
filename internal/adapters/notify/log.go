package notify

import (
	"context"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
)

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	log logger.Logger
}

// NewLogPublisher returns a publisher logging through l, or the "events" logger when nil.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	if l == nil {
		l = logger.Named("events")
	}
	return &LogPublisher{log: l}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: mirrors the worker signature
	fields := []logger.Field{
		logger.String("event_id", e.ID),
		logger.String("type", string(e.Type)),
	}
	for k, v := range e.Payload {
		fields = append(fields, logger.Any(k, v))
	}
	p.log.Info(ctx, "event", fields...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

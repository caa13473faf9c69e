package ingest

import (
	"time"

	"github.com/okian/applyflow/pkg/logger"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvents enqueues a run.completed event on sink after every run.
func WithEvents(sink EventSink) Option {
	return func(o *Orchestrator) {
		o.events = sink
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source used for run timing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

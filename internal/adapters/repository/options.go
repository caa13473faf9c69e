package repository

import (
	"time"

	"github.com/okian/applyflow/pkg/logger"
)

// Option applies a configuration option to a Store implementation.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger logger.Logger
}

func defaultOptions() options {
	return options{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o *options) log() logger.Logger {
	if o.logger == nil {
		o.logger = logger.Named("repository")
	}
	return o.logger
}

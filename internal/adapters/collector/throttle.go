package collector

import (
	"context"
	"time"
)

// Throttle enforces a fixed pause between calls.
type Throttle struct {
	delay time.Duration
}

// NewThrottle returns a Throttle that waits d on every Wait. d <= 0 disables it.
func NewThrottle(d time.Duration) Throttle {
	return Throttle{delay: d}
}

// Wait blocks for the configured delay or until ctx is done.
func (t Throttle) Wait(ctx context.Context) error {
	if t.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

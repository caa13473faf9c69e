package collector

import (
	"net/http"
	"time"

	"github.com/okian/applyflow/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultDelay   = 500 * time.Millisecond
)

// Option configures the HTTP plumbing shared by the collectors.
type Option func(*base)

// WithBaseURL overrides the API root, e.g. to point at a test server.
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithHTTPClient sets the client used for outbound requests.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.client = &http.Client{Timeout: d}
		}
	}
}

// WithDelay sets the pause between consecutive outbound requests.
func WithDelay(d time.Duration) Option {
	return func(b *base) {
		b.throttle = NewThrottle(d)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.log = l
		}
	}
}

// Package notify delivers pipeline events to downstream consumers.
package notify

import (
	"context"

	"github.com/okian/applyflow/internal/domain/model"
)

// DefaultChannel is the Redis pub/sub channel events are published on.
const DefaultChannel = "applyflow:events"

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e model.Event) error
	Close() error
}

// Package dedupe tracks which posting ids have already been recorded.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen ids to ensure at-most-once insertion.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id. Callers use it to roll back a record whose
	// follow-up write failed.
	Unrecord(ctx context.Context, id string)
}

// inMemoryDeduper implements Deduper with a mutex-guarded set.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	hint int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.hint)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

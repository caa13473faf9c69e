package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithCapacityHint pre-sizes the underlying set.
func WithCapacityHint(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.hint = n
		}
	}
}

package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of refs to keep in memory.
// maxSize > 0 enables bounded mode with FIFO eviction; maxSize <= 0 keeps
// every ref for the life of the process.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// Package dedupe tracks imported evidence source refs so each upstream
// record is imported at most once per process run. The store's unique index
// on source_ref is the durable backstop; this cache keeps repeat syncs from
// hammering the database with already-seen refs.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen source refs to ensure at-most-once import.
type Deduper interface {
	// SeenAndRecord atomically checks if ref was seen and records it if not.
	// Returns true if ref was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, ref string) bool

	// Unrecord removes a ref from the seen set, allowing a retry. Used when
	// a ref was recorded but the item failed to reach the analysis queue.
	Unrecord(ctx context.Context, ref string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of refs for
// bounded eviction. maxSize <= 0 disables eviction entirely.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // FIFO eviction order, unused when unbounded
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, ref string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[ref]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldestLocked()
	}

	d.seen[ref] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, ref)
	}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, ref string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[ref]; !exists {
		return
	}
	delete(d.seen, ref)
	for i, r := range d.order {
		if r == ref {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.size.Add(-1)
}

// evictOldestLocked drops the oldest recorded ref. Evicted refs can be seen
// again; the store's unique index still rejects the duplicate insert.
func (d *inMemoryDeduper) evictOldestLocked() {
	for len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		if _, exists := d.seen[oldest]; exists {
			delete(d.seen, oldest)
			d.size.Add(-1)
			return
		}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

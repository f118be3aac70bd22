package sources

import (
	"context"
	"sync"
	"time"
)

// ManualSource buffers items captured by hand, typically through the API.
// Fetch drains everything submitted since the last sync.
type ManualSource struct {
	mu      sync.Mutex
	pending []Item
}

// NewManualSource creates an empty manual source.
func NewManualSource() *ManualSource {
	return &ManualSource{}
}

func (m *ManualSource) Name() string { return "manual" }

// Submit queues an item for the next sync pass.
func (m *ManualSource) Submit(it Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, it)
}

// Fetch drains and returns all pending items. The since watermark is
// ignored; manual captures are always new.
func (m *ManualSource) Fetch(ctx context.Context, since time.Time) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out, nil
}

package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

func evidence(id string) model.Evidence {
	return model.Evidence{
		ID:        id,
		Kind:      model.KindMeeting,
		SourceRef: "test:" + id,
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, evidence("ev1")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	itemChan := q.Dequeue(ctx)
	it := <-itemChan
	if it.ID != "ev1" {
		t.Errorf("expected ev1, got %v", it.ID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, evidence("ev1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, evidence("ev2")) {
		t.Error("expected enqueue to succeed")
	}

	// Full queue drops the item instead of blocking.
	if q.Enqueue(ctx, evidence("ev3")) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numItems := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numItems; j++ {
				it := evidence(fmt.Sprintf("ev%d_%d", id, j))
				for !q.Enqueue(ctx, it) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, numGoroutines*numItems)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for it := range q.Dequeue(ctx) {
				consumed <- it.ID
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Give consumers time to drain.
	time.Sleep(100 * time.Millisecond)

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, evidence("ev1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, evidence("ev2")) {
		t.Error("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if q.Enqueue(ctx, evidence("ev3")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Remaining items drain, then the channel closes.
	itemChan := q.Dequeue(ctx)
	var drained []string
	timeout := time.After(time.Second)
	for {
		select {
		case it, ok := <-itemChan:
			if !ok {
				if len(drained) != 2 {
					t.Errorf("expected 2 drained items, got %d", len(drained))
				}
				// Close again should not error.
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, it.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to close within timeout")
		}
	}
}

// Package worker drains imported evidence off the queue and runs LLM
// analysis on it, persisting the extracted insights.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/pkg/logger"
	"github.com/rapporthq/rapport/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
)

// Item abstracts what workers read off the queue.
type Item = model.Evidence

// Analyzer extracts insights from one evidence item.
type Analyzer interface {
	Analyze(ctx context.Context, ev model.Evidence) ([]model.Insight, error)
}

// InsightWriter persists analysis output.
type InsightWriter interface {
	InsertInsights(ctx context.Context, insights []model.Insight) error
	MarkEvidenceReviewed(ctx context.Context, id string) error
}

// Queue defines how workers receive items.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Item
}

// Worker processes evidence items until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker, letting the in-flight item finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	writer   InsightWriter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, writer InsightWriter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		writer:   writer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, it); err != nil {
				w.logger.Error(ctx, "processing evidence failed",
					logger.String("evidence_id", it.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs analysis on one evidence item and persists the results.
func (w *InMemoryWorker) process(ctx context.Context, ev model.Evidence) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	insights, err := w.analyzer.Analyze(ctx, ev)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		return fmt.Errorf("analyze evidence %s: %w", ev.ID, err)
	}

	if len(insights) > 0 {
		if err := w.writer.InsertInsights(ctx, insights); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "store_error")
			return fmt.Errorf("store insights for evidence %s: %w", ev.ID, err)
		}
		metrics.RecordInsightsExtracted(len(insights))
	}

	if err := w.writer.MarkEvidenceReviewed(ctx, ev.ID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark evidence %s reviewed: %w", ev.ID, err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to the
// number of CPUs.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, writer InsightWriter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			analyzer,
			writer,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and drains the pool. Workers exit once the
// queue channel closes and remaining items are processed.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)

	return nil
}

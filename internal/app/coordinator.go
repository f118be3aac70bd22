package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/adapters/sources"
	"github.com/rapporthq/rapport/internal/domain/types"
	"github.com/rapporthq/rapport/pkg/logger"
	"github.com/rapporthq/rapport/pkg/metrics"
)

// Coordinator sync statuses.
const (
	StatusIdle       = "idle"
	StatusGenerating = "generating"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// coordinator serializes imports for one source. Only one sync per source
// runs at a time; everything else observes status through the mutex.
type coordinator struct {
	source sources.Source

	mu          sync.Mutex
	status      string
	lastRun     time.Time
	lastSuccess time.Time
	lastError   string
	watermark   time.Time
	cancel      context.CancelFunc
}

func newCoordinator(src sources.Source) *coordinator {
	return &coordinator{source: src, status: StatusIdle}
}

// begin transitions to generating if no sync is running. Returns false when
// one already is.
func (c *coordinator) begin(now time.Time, cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusGenerating {
		return false
	}
	c.status = StatusGenerating
	c.lastRun = now
	c.cancel = cancel
	return true
}

func (c *coordinator) finish(now time.Time, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
	if err != nil {
		c.status = StatusFailed
		c.lastError = err.Error()
		return
	}
	c.status = StatusSuccess
	c.lastSuccess = now
	c.lastError = ""
	c.watermark = c.lastRun
}

func (c *coordinator) stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *coordinator) snapshot() types.SourceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.SourceStatus{
		Source:      c.source.Name(),
		Status:      c.status,
		LastRun:     c.lastRun,
		LastSuccess: c.lastSuccess,
		LastError:   c.lastError,
	}
}

// requeueGrace keeps evidence imported moments ago out of the backlog
// sweep while its first enqueue may still be in flight.
const requeueGrace = 10 * time.Minute

// SyncAll runs one sync pass over every configured source. Sources already
// mid-sync are skipped. The first import error per source marks that source
// failed without stopping the others.
func (s *Service) SyncAll(ctx context.Context) {
	s.requeueUnanalyzed(ctx)
	for _, name := range s.order {
		s.syncOne(ctx, s.coordinators[name])
	}
}

// requeueUnanalyzed pushes stored evidence that never finished analysis
// back onto the queue: backpressure drops and analyzer failures from
// earlier passes. Skipped while the queue still holds work, since anything
// in flight would be enqueued twice.
func (s *Service) requeueUnanalyzed(ctx context.Context) {
	if s.analyzer == nil || s.queue == nil || s.queue.Len(ctx) > 0 {
		return
	}
	backlog, err := s.store.ListUnreviewedEvidence(ctx)
	if err != nil {
		s.logger.Warn(ctx, "listing unanalyzed backlog failed", logger.Error(err))
		return
	}
	cutoff := s.now().Add(-requeueGrace)
	requeued := 0
	for _, ev := range backlog {
		if ev.CreatedAt.After(cutoff) {
			continue
		}
		if !s.queue.Enqueue(ctx, ev) {
			break
		}
		requeued++
	}
	if requeued > 0 {
		s.logger.Info(ctx, "requeued unanalyzed evidence", logger.Int("count", requeued))
	}
}

// TriggerSync starts a background sync pass. Returns false when the service
// is not started.
func (s *Service) TriggerSync() bool {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false
	}
	go s.SyncAll(context.Background())
	return true
}

// SyncStatuses reports every coordinator's state in configuration order.
func (s *Service) SyncStatuses() []types.SourceStatus {
	out := make([]types.SourceStatus, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.coordinators[name].snapshot())
	}
	return out
}

func (s *Service) syncOne(ctx context.Context, c *coordinator) {
	now := s.now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !c.begin(now, cancel) {
		s.logger.Debug(ctx, "sync already running, skipping",
			logger.String("source", c.source.Name()))
		return
	}

	start := time.Now()
	err := s.runImport(runCtx, c)
	metrics.RecordSyncDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordSyncRun(c.source.Name(), "failed")
		s.logger.Warn(ctx, "sync failed",
			logger.String("source", c.source.Name()), logger.Error(err))
	} else {
		metrics.RecordSyncRun(c.source.Name(), "success")
	}
	c.finish(s.now(), err)
}

func (s *Service) runImport(ctx context.Context, c *coordinator) error {
	c.mu.Lock()
	since := c.watermark
	c.mu.Unlock()

	items, err := c.source.Fetch(ctx, since)
	if err != nil {
		return err
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.importItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// importItem persists one fetched item: people first, then the evidence
// with its notes, then a queue handoff for analysis. Duplicates by source
// ref are dropped silently.
func (s *Service) importItem(ctx context.Context, it sources.Item) error {
	now := s.now()
	for _, p := range it.People {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.LastSyncedAt = now
		if err := s.store.UpsertPerson(ctx, p); err != nil {
			return err
		}
	}

	ev := it.Evidence
	ref := ev.SourceRef
	if ref != "" && s.deduper.SeenAndRecord(ctx, ref) {
		metrics.RecordEvidenceDuplicate()
		return nil
	}
	if ref != "" {
		exists, err := s.store.SourceRefExists(ctx, ref)
		if err != nil {
			s.deduper.Unrecord(ctx, ref)
			return err
		}
		if exists {
			metrics.RecordEvidenceDuplicate()
			return nil
		}
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	notes := it.Notes
	for i := range notes {
		if notes[i].ID == "" {
			notes[i].ID = uuid.NewString()
		}
		notes[i].EvidenceID = ev.ID
		if notes[i].CreatedAt.IsZero() {
			notes[i].CreatedAt = now
		}
	}

	if err := s.store.InsertEvidence(ctx, ev, notes); err != nil {
		if errors.Is(err, repository.ErrDuplicateRef) {
			metrics.RecordEvidenceDuplicate()
			return nil
		}
		if ref != "" {
			s.deduper.Unrecord(ctx, ref)
		}
		return err
	}
	metrics.RecordEvidenceImported()

	if s.analyzer != nil && s.queue != nil {
		if !s.queue.Enqueue(ctx, ev) {
			// Backpressure: the row is committed and still unreviewed, so
			// the backlog sweep on a later sync picks it up.
			s.logger.Warn(ctx, "analysis queue full, evidence imported unanalyzed",
				logger.String("evidence_id", ev.ID))
		}
	}
	return nil
}

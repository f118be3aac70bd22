// Package service wires the import pipeline, scoring components, and
// coaching queue together behind the API's dependency surface.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	eventqueue "github.com/rapporthq/rapport/internal/adapters/mq/queue"
	workerpool "github.com/rapporthq/rapport/internal/adapters/mq/worker"
	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/adapters/sources"
	"github.com/rapporthq/rapport/internal/domain/dedupe"
	"github.com/rapporthq/rapport/internal/domain/health"
	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/internal/domain/outcomes"
	"github.com/rapporthq/rapport/internal/domain/pipeline"
	"github.com/rapporthq/rapport/pkg/logger"
	"github.com/rapporthq/rapport/pkg/metrics"
)

// Service implements the API dependencies for the relationship coach.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.Store
	deduper   dedupe.Deduper
	queue     eventqueue.Queue
	pool      *workerpool.Pool
	engine    *outcomes.Engine
	estimator *health.Estimator
	detector  *pipeline.Detector
	analyzer  workerpool.Analyzer

	// Sync
	coordinators map[string]*coordinator
	order        []string
	manual       *sources.ManualSource
	scheduler    *cron.Cron
	schedule     string

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSources registers the evidence sources to sync from.
func WithSources(srcs ...sources.Source) Option {
	return func(s *Service) {
		for _, src := range srcs {
			if src == nil {
				continue
			}
			name := src.Name()
			if _, exists := s.coordinators[name]; exists {
				continue
			}
			s.coordinators[name] = newCoordinator(src)
			s.order = append(s.order, name)
			if ms, ok := src.(*sources.ManualSource); ok && s.manual == nil {
				s.manual = ms
			}
		}
	}
}

// WithAnalyzer sets the LLM analyzer. Without one, imported evidence is
// stored but never analyzed.
func WithAnalyzer(a workerpool.Analyzer) Option {
	return func(s *Service) {
		s.analyzer = a
	}
}

// WithEstimator overrides the health estimator.
func WithEstimator(e *health.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithDetector overrides the stagnation detector.
func WithDetector(d *pipeline.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the analysis queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the import dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSchedule sets the cron spec for background syncs. Empty disables the
// scheduler; syncs then only run on explicit trigger.
func WithSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around the given store.
func New(store *repository.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		estimator:    health.NewEstimator(),
		detector:     pipeline.NewDetector(),
		coordinators: make(map[string]*coordinator),
		workerCount:  runtime.NumCPU(),
		queueSize:    10000,
		dedupeSize:   50000,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting relationship coach service")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.engine = outcomes.NewEngine(s.store, outcomes.WithClock(s.now))
	if err := s.engine.Load(ctx); err != nil {
		return err
	}

	if s.analyzer != nil {
		s.queue = eventqueue.NewInMemoryQueue(
			eventqueue.WithCapacity(s.queueSize),
			eventqueue.WithBufferSize(s.queueSize),
		)
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.analyzer, s.store)
		s.pool.Start(ctx)
	}

	if s.schedule != "" {
		s.scheduler = cron.New()
		if _, err := s.scheduler.AddFunc(s.schedule, func() {
			s.SyncAll(context.Background())
			if _, err := s.GenerateOutcomes(context.Background()); err != nil {
				s.logger.Warn(context.Background(), "scheduled generation failed", logger.Error(err))
			}
		}); err != nil {
			return err
		}
		s.scheduler.Start()
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("sources", len(s.order)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping service")

	if s.scheduler != nil {
		stopCtx := s.scheduler.Stop()
		<-stopCtx.Done()
	}

	for _, name := range s.order {
		s.coordinators[name].stop()
	}

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// SubmitEvidence feeds one hand-captured item through the manual source's
// coordinator so it is imported right away. If that coordinator is mid-sync
// the running pass or the next one drains the item instead.
func (s *Service) SubmitEvidence(ctx context.Context, it sources.Item) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if s.manual == nil {
		return ErrNoManualSource
	}
	if !started {
		return ErrNotStarted
	}

	s.manual.Submit(it)
	s.syncOne(ctx, s.coordinators[s.manual.Name()])
	return nil
}

// Active returns the ranked coaching queue.
func (s *Service) Active(ctx context.Context) ([]model.Outcome, error) {
	return s.engine.Active(ctx)
}

// CompletedToday returns outcomes completed since local midnight.
func (s *Service) CompletedToday(ctx context.Context) ([]model.Outcome, error) {
	return s.engine.CompletedToday(ctx)
}

// History returns all resolved outcomes.
func (s *Service) History(ctx context.Context) ([]model.Outcome, error) {
	return s.engine.History(ctx)
}

// MarkCompleted resolves an outcome as done.
func (s *Service) MarkCompleted(ctx context.Context, id string) error {
	if err := s.engine.MarkCompleted(ctx, id); err != nil {
		return err
	}
	metrics.RecordOutcomeResolved("completed")
	return nil
}

// MarkDismissed resolves an outcome as not useful.
func (s *Service) MarkDismissed(ctx context.Context, id string) error {
	if err := s.engine.MarkDismissed(ctx, id); err != nil {
		return err
	}
	metrics.RecordOutcomeResolved("dismissed")
	return nil
}

// MarkInProgress records that the user started working an outcome.
func (s *Service) MarkInProgress(ctx context.Context, id string) error {
	return s.engine.MarkInProgress(ctx, id)
}

// RecordRating attaches 1-5 feedback to a completed outcome.
func (s *Service) RecordRating(ctx context.Context, id string, rating int) error {
	return s.engine.RecordRating(ctx, id, rating)
}

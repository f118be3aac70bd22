// Package outcomes maintains the ranked queue of actionable coaching items.
// The queue orders by an externally-assigned priority score and exposes ties
// in stable insertion order; it does not decide how scores are computed.
package outcomes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/pkg/logger"
)

// Store persists outcomes and their status transitions. Writes are best
// effort: a failed write leaves queue state unchanged for the caller to
// retry (single-user local tool, no retry policy).
type Store interface {
	ListOutcomes(ctx context.Context) ([]model.Outcome, error)
	InsertOutcome(ctx context.Context, o model.Outcome) error
	UpdateOutcomeStatus(ctx context.Context, id string, status model.OutcomeStatus, resolvedAt *time.Time) error
	UpdateOutcomeRating(ctx context.Context, id string, rating int) error
}

// Candidate is a proposed outcome produced by the generation rules. CauseKey
// identifies the underlying cause so regeneration stays idempotent.
type Candidate struct {
	PersonID      string
	EvidenceID    string
	CauseKey      string
	Kind          model.OutcomeKind
	Title         string
	Detail        string
	PriorityScore float64
	DefaultAction model.DefaultAction
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine is the coaching queue. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	byID    map[string]*model.Outcome
	byCause map[string]*model.Outcome
	seq     map[string]int // insertion order for stable ties
	nextSeq int
	loaded  bool

	store Store
	now   func() time.Time
	log   logger.Logger
}

// NewEngine creates an engine backed by the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		byID:    make(map[string]*model.Outcome),
		byCause: make(map[string]*model.Outcome),
		seq:     make(map[string]int),
		store:   store,
		now:     time.Now,
		log:     logger.Get().Named("outcomes"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load hydrates queue state from the store. Called once at startup; Generate
// and the read paths call it lazily as a fallback.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	stored, err := e.store.ListOutcomes(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(stored, func(i, j int) bool {
		if !stored[i].CreatedAt.Equal(stored[j].CreatedAt) {
			return stored[i].CreatedAt.Before(stored[j].CreatedAt)
		}
		return stored[i].ID < stored[j].ID
	})
	for i := range stored {
		o := stored[i]
		e.byID[o.ID] = &o
		e.byCause[o.CauseKey] = &o
		e.seq[o.ID] = e.nextSeq
		e.nextSeq++
	}
	e.loaded = true
	return nil
}

// Generate reconciles the queue against the current candidate set. A cause
// whose outcome was already completed or dismissed is never resurrected, and
// a cause already pending is not duplicated. Returns how many outcomes were
// added.
func (e *Engine) Generate(ctx context.Context, candidates []Candidate) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.loadLocked(ctx); err != nil {
		return 0, err
	}

	added := 0
	for _, c := range candidates {
		if c.CauseKey == "" {
			continue
		}
		if _, exists := e.byCause[c.CauseKey]; exists {
			// Pending, in progress, or already acted on: either way the
			// user has seen this cause.
			continue
		}

		o := model.Outcome{
			ID:            uuid.NewString(),
			PersonID:      c.PersonID,
			EvidenceID:    c.EvidenceID,
			CauseKey:      c.CauseKey,
			Kind:          c.Kind,
			Title:         c.Title,
			Detail:        c.Detail,
			Status:        model.OutcomePending,
			PriorityScore: c.PriorityScore,
			DefaultAction: c.DefaultAction,
			CreatedAt:     e.now(),
		}
		if err := e.store.InsertOutcome(ctx, o); err != nil {
			e.log.Warn(ctx, "outcome insert failed, skipping candidate",
				logger.String("causeKey", c.CauseKey), logger.Error(err))
			continue
		}
		e.byID[o.ID] = &o
		e.byCause[o.CauseKey] = &o
		e.seq[o.ID] = e.nextSeq
		e.nextSeq++
		added++
	}
	return added, nil
}

// Active returns pending and in-progress outcomes ordered by priority score
// descending, ties broken by insertion order.
func (e *Engine) Active(ctx context.Context) ([]model.Outcome, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []model.Outcome
	for _, o := range e.byID {
		if !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return e.seq[out[i].ID] < e.seq[out[j].ID]
	})
	return out, nil
}

// CompletedToday returns outcomes completed since local midnight.
func (e *Engine) CompletedToday(ctx context.Context) ([]model.Outcome, error) {
	now := e.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []model.Outcome
	for _, o := range e.byID {
		if o.Status == model.OutcomeCompleted && o.ResolvedAt != nil && !o.ResolvedAt.Before(midnight) {
			out = append(out, *o)
		}
	}
	sortResolvedDesc(out)
	return out, nil
}

// History returns all resolved outcomes, most recent first.
func (e *Engine) History(ctx context.Context) ([]model.Outcome, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []model.Outcome
	for _, o := range e.byID {
		if o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	sortResolvedDesc(out)
	return out, nil
}

// MarkCompleted moves a pending or in-progress outcome to its completed
// terminal state.
func (e *Engine) MarkCompleted(ctx context.Context, id string) error {
	return e.resolve(ctx, id, model.OutcomeCompleted)
}

// MarkDismissed moves a pending or in-progress outcome to its dismissed
// terminal state.
func (e *Engine) MarkDismissed(ctx context.Context, id string) error {
	return e.resolve(ctx, id, model.OutcomeDismissed)
}

// MarkInProgress records the optional observational transition from pending.
func (e *Engine) MarkInProgress(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status.Terminal() {
		return ErrTerminal
	}
	if o.Status == model.OutcomeInProgress {
		return nil
	}
	if err := e.store.UpdateOutcomeStatus(ctx, id, model.OutcomeInProgress, nil); err != nil {
		e.log.Warn(ctx, "status write failed, state unchanged", logger.String("id", id), logger.Error(err))
		return nil
	}
	o.Status = model.OutcomeInProgress
	return nil
}

func (e *Engine) resolve(ctx context.Context, id string, status model.OutcomeStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status.Terminal() {
		return ErrTerminal
	}

	resolvedAt := e.now()
	if err := e.store.UpdateOutcomeStatus(ctx, id, status, &resolvedAt); err != nil {
		// Best effort: leave state unchanged so the caller can retry.
		e.log.Warn(ctx, "status write failed, state unchanged", logger.String("id", id), logger.Error(err))
		return nil
	}
	o.Status = status
	o.ResolvedAt = &resolvedAt
	return nil
}

// RecordRating attaches advisory 1-5 feedback to a completed outcome. It
// never affects the ranking of other items.
func (e *Engine) RecordRating(ctx context.Context, id string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != model.OutcomeCompleted {
		return ErrNotCompleted
	}
	if err := e.store.UpdateOutcomeRating(ctx, id, rating); err != nil {
		e.log.Warn(ctx, "rating write failed, state unchanged", logger.String("id", id), logger.Error(err))
		return nil
	}
	o.Rating = rating
	return nil
}

func sortResolvedDesc(out []model.Outcome) {
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].ResolvedAt, out[j].ResolvedAt
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return ri.After(*rj)
		}
	})
}

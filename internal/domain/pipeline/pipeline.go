// Package pipeline flags people stuck in an early funnel stage beyond a
// stage-specific threshold. Purely a view-time query; no stuck state is
// persisted.
package pipeline

import (
	"sort"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// Default stage thresholds.
const (
	defaultLeadStuckDays      = 30
	defaultApplicantStuckDays = 14
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithLeadThreshold overrides the lead stagnation threshold in days.
func WithLeadThreshold(days int) Option {
	return func(d *Detector) {
		if days > 0 {
			d.leadDays = days
		}
	}
}

// WithApplicantThreshold overrides the applicant stagnation threshold in days.
func WithApplicantThreshold(days int) Option {
	return func(d *Detector) {
		if days > 0 {
			d.applicantDays = days
		}
	}
}

// StuckPerson is one stagnant funnel entry for display.
type StuckPerson struct {
	Person    model.Person
	Stage     model.Role
	DaysStuck int
}

// Detector computes the stagnant-person list.
type Detector struct {
	leadDays      int
	applicantDays int
}

// NewDetector creates a detector with configuration options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		leadDays:      defaultLeadStuckDays,
		applicantDays: defaultApplicantStuckDays,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stuck returns people in an early funnel stage whose most recent evidence
// (or last sync, if they have no evidence at all) is older than the stage
// threshold, sorted by days stuck descending.
func (d *Detector) Stuck(people []model.Person, latestEvidence map[string]time.Time, now time.Time) []StuckPerson {
	var out []StuckPerson
	for _, p := range people {
		if p.Archived {
			continue
		}
		stage, threshold, ok := d.stageFor(p)
		if !ok {
			continue
		}

		last, haveEvidence := latestEvidence[p.ID]
		if !haveEvidence {
			last = p.LastSyncedAt
		}
		if last.IsZero() || last.After(now) {
			continue
		}

		days := int(now.Sub(last).Hours() / 24)
		if days > threshold {
			out = append(out, StuckPerson{Person: p, Stage: stage, DaysStuck: days})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysStuck > out[j].DaysStuck
	})
	return out
}

// stageFor picks the funnel stage a person is judged by. Applicant wins over
// lead when both badges are present since its threshold is tighter.
func (d *Detector) stageFor(p model.Person) (model.Role, int, bool) {
	switch {
	case p.HasRole(model.RoleApplicant):
		return model.RoleApplicant, d.applicantDays, true
	case p.HasRole(model.RoleLead):
		return model.RoleLead, d.leadDays, true
	default:
		return "", 0, false
	}
}

// Package health estimates a person's contact rhythm and flags anomalous
// gaps since last contact. All computations are pure functions over an
// in-memory snapshot of evidence timestamps; nothing here is persisted.
package health

import (
	"sort"
	"time"
)

// Default estimator configuration constants.
const (
	defaultMinEvidence      = 3
	defaultMinCadence       = 24 * time.Hour
	defaultOverdueThreshold = 1.5

	day = 24 * time.Hour
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithMinEvidence sets how many evidence items a person needs before their
// cadence is considered estimable.
func WithMinEvidence(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.minEvidence = n
		}
	}
}

// WithMinCadence sets the floor below which a cadence is treated as a
// non-meaningful rapid-chat rhythm.
func WithMinCadence(d time.Duration) Option {
	return func(e *Estimator) {
		if d > 0 {
			e.minCadence = d
		}
	}
}

// WithOverdueThreshold sets the overdue-ratio cutoff.
func WithOverdueThreshold(ratio float64) Option {
	return func(e *Estimator) {
		if ratio > 1 {
			e.overdueThreshold = ratio
		}
	}
}

// Assessment is the computed relationship health for one person.
type Assessment struct {
	CadenceDays            float64
	CurrentGapDays         float64
	OverdueRatio           float64
	Risk                   Risk
	Overdue                bool
	PredictedDaysToOverdue float64 // meaningful only when HasPrediction
	HasPrediction          bool    // false once already overdue
}

// AtRisk reports whether a not-yet-overdue person should still be surfaced.
func (a Assessment) AtRisk() bool {
	return !a.Overdue && a.Risk.AtLeast(RiskModerate)
}

// Estimator computes assessments from evidence occurrence times.
type Estimator struct {
	minEvidence      int
	minCadence       time.Duration
	overdueThreshold float64
}

// NewEstimator creates an estimator with configuration options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		minEvidence:      defaultMinEvidence,
		minCadence:       defaultMinCadence,
		overdueThreshold: defaultOverdueThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assess computes the assessment for a person given the occurrence times of
// their linked evidence. Returns ErrInsufficientData below the evidence
// minimum and ErrCadenceTooShort when the median gap is under the floor;
// callers omit such people rather than reporting an error.
func (e *Estimator) Assess(occurrences []time.Time, now time.Time) (Assessment, error) {
	if len(occurrences) < e.minEvidence {
		return Assessment{}, ErrInsufficientData
	}

	sorted := make([]time.Time, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Sub(sorted[i-1]).Seconds())
	}

	// Median, not mean: a burst of rapid messages must not drag the
	// estimated rhythm toward zero.
	cadenceSeconds := median(gaps)
	if cadenceSeconds < e.minCadence.Seconds() {
		return Assessment{}, ErrCadenceTooShort
	}

	currentGapSeconds := now.Sub(sorted[len(sorted)-1]).Seconds()
	if currentGapSeconds < 0 {
		currentGapSeconds = 0
	}

	cadenceDays := cadenceSeconds / day.Seconds()
	gapDays := currentGapSeconds / day.Seconds()
	ratio := currentGapSeconds / cadenceSeconds

	a := Assessment{
		CadenceDays:    cadenceDays,
		CurrentGapDays: gapDays,
		OverdueRatio:   ratio,
		Overdue:        ratio >= e.overdueThreshold,
	}

	if !a.Overdue {
		// The gap grows one day per day, so the crossing point is a
		// straight-line extrapolation from the current gap.
		a.PredictedDaysToOverdue = e.overdueThreshold*cadenceDays - gapDays
		a.HasPrediction = true
	}

	a.Risk = e.classify(ratio, a)
	return a, nil
}

// classify maps the overdue ratio (and the crossing prediction, when one
// exists) onto the ordered risk scale.
func (e *Estimator) classify(ratio float64, a Assessment) Risk {
	switch {
	case ratio >= 3.0:
		return RiskCritical
	case ratio >= 2.25:
		return RiskHigh
	case ratio >= e.overdueThreshold:
		return RiskModerate
	case ratio >= 1.25:
		return RiskModerate
	case a.HasPrediction && a.PredictedDaysToOverdue <= 2:
		return RiskModerate
	case ratio >= 1.0:
		return RiskLow
	case a.HasPrediction && a.PredictedDaysToOverdue <= 5:
		return RiskLow
	default:
		return RiskNone
	}
}

// median returns the middle value for odd counts and the mean of the two
// middle values for even counts.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

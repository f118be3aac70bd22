// Package types contains the read-model types shared between the service
// and the HTTP API.
package types

import (
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// PersonView is one person with their computed relationship health.
// Assessed is false when the person has too little or too rapid evidence
// for a meaningful cadence.
type PersonView struct {
	Person                 model.Person `json:"person"`
	Assessed               bool         `json:"assessed"`
	CadenceDays            float64      `json:"cadence_days,omitempty"`
	CurrentGapDays         float64      `json:"current_gap_days,omitempty"`
	OverdueRatio           float64      `json:"overdue_ratio,omitempty"`
	Risk                   string       `json:"risk,omitempty"`
	Overdue                bool         `json:"overdue,omitempty"`
	PredictedDaysToOverdue float64      `json:"predicted_days_to_overdue,omitempty"`
	HasPrediction          bool         `json:"has_prediction,omitempty"`
}

// PersonDetail is the full person page: health plus raw history.
type PersonDetail struct {
	PersonView
	Evidence []model.Evidence `json:"evidence"`
	Insights []model.Insight  `json:"insights"`
}

// StuckPersonView is one stagnant funnel entry.
type StuckPersonView struct {
	Person    model.Person `json:"person"`
	Stage     string       `json:"stage"`
	DaysStuck int          `json:"days_stuck"`
}

// StreakReport bundles every behavioral counter for display.
type StreakReport struct {
	MeetingNotes      int     `json:"meeting_notes"`
	SameDayFollowUp   int     `json:"same_day_follow_up"`
	WeeklyClientTouch int     `json:"weekly_client_touch"`
	WeeklyContent     int     `json:"weekly_content"`
	BackToBackDay     string  `json:"back_to_back_day,omitempty"`
	BackToBackPairs   int     `json:"back_to_back_pairs"`
	BusiestWeekday    string  `json:"busiest_weekday,omitempty"`
	BusiestAverage    float64 `json:"busiest_average,omitempty"`
}

// SourceStatus is one coordinator's sync state.
type SourceStatus struct {
	Source      string    `json:"source"`
	Status      string    `json:"status"` // idle, generating, success, failed
	LastRun     time.Time `json:"last_run,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

package model

import "time"

// OutcomeStatus is the lifecycle state of a coaching-queue item.
// pending -> inProgress -> completed, or pending -> dismissed.
// Both completed and dismissed are terminal; undo lives outside this layer.
type OutcomeStatus string

const (
	OutcomePending    OutcomeStatus = "pending"
	OutcomeInProgress OutcomeStatus = "in_progress"
	OutcomeCompleted  OutcomeStatus = "completed"
	OutcomeDismissed  OutcomeStatus = "dismissed"
)

// Terminal reports whether the status admits no further transitions.
func (s OutcomeStatus) Terminal() bool {
	return s == OutcomeCompleted || s == OutcomeDismissed
}

// OutcomeKind drives the default UI affordance for an outcome.
type OutcomeKind string

const (
	OutcomeReconnect    OutcomeKind = "reconnect"
	OutcomeStagnantLead OutcomeKind = "stagnant_lead"
	OutcomeMissingNotes OutcomeKind = "missing_notes"
	OutcomeFollowUp     OutcomeKind = "follow_up"
	OutcomeInsight      OutcomeKind = "insight"
)

// DefaultAction is the presentation-layer affordance an outcome maps to.
// The queue itself is agnostic to what the UI does with it.
type DefaultAction string

const (
	ActionCaptureNote  DefaultAction = "capture_note"
	ActionOpenPerson   DefaultAction = "open_person"
	ActionOpenEvidence DefaultAction = "open_evidence"
)

// Outcome is a single actionable coaching-queue item.
type Outcome struct {
	ID            string
	PersonID      string
	EvidenceID    string // optional, set when the cause is a specific item
	CauseKey      string // identity of the underlying cause, for idempotent regeneration
	Kind          OutcomeKind
	Title         string
	Detail        string
	Status        OutcomeStatus
	PriorityScore float64
	DefaultAction DefaultAction
	Rating        int // 0 = unrated, else 1..5
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

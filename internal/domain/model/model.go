// Package model contains domain models passed between layers.
package model

import "time"

// Role is a badge attached to a person describing where they sit in the
// practice (client book, recruiting funnel, peers).
type Role string

const (
	RoleClient    Role = "client"
	RoleLead      Role = "lead"
	RoleApplicant Role = "applicant"
	RoleAgent     Role = "agent"
	RoleRecruit   Role = "recruit"
	RoleFriend    Role = "friend"
)

// EvidenceKind identifies the source of an interaction record.
type EvidenceKind string

const (
	KindMeeting EvidenceKind = "meeting"
	KindEmail   EvidenceKind = "email"
	KindMessage EvidenceKind = "message"
	KindCall    EvidenceKind = "call"
	KindNote    EvidenceKind = "note"
	KindPost    EvidenceKind = "post" // published content, not tied to a person
	KindManual  EvidenceKind = "manual"
)

// Person is a tracked human contact. People are archived, never deleted.
type Person struct {
	ID           string
	DisplayName  string
	Roles        []Role
	Archived     bool
	LastSyncedAt time.Time
	CreatedAt    time.Time
}

// HasRole reports whether the person carries the given badge.
func (p Person) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Evidence is a timestamped interaction record linked to one or more people.
// It is immutable once analyzed except for the review flag.
type Evidence struct {
	ID         string
	Kind       EvidenceKind
	OccurredAt time.Time
	EndedAt    *time.Time // nil for point-in-time interactions
	SourceRef  string     // stable upstream identifier, used for dedupe
	Summary    string
	Reviewed   bool
	PersonIDs  []string
	NoteIDs    []string
	CreatedAt  time.Time
}

// End returns the effective end time: EndedAt when present, otherwise the
// occurrence time itself.
func (e Evidence) End() time.Time {
	if e.EndedAt != nil {
		return *e.EndedAt
	}
	return e.OccurredAt
}

// Note is a free-form annotation the user attaches to evidence.
type Note struct {
	ID         string
	Body       string
	EvidenceID string
	CreatedAt  time.Time
}

// InsightKind distinguishes remembered facts from actionable items.
type InsightKind string

const (
	InsightFact       InsightKind = "fact"
	InsightActionItem InsightKind = "action_item"
)

// Insight is an LLM-extracted fact or action item tied to a person and the
// evidence it was derived from.
type Insight struct {
	ID         string
	PersonID   string
	EvidenceID string
	Kind       InsightKind
	Body       string
	Confidence float64
	Model      string
	CreatedAt  time.Time
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/internal/domain/outcomes"
	"github.com/rapporthq/rapport/pkg/metrics"
)

func personFilterAll() repository.PersonFilter {
	return repository.PersonFilter{}
}

func recentMeetingFilter(now time.Time) repository.EvidenceFilter {
	return repository.EvidenceFilter{
		Kind:  model.KindMeeting,
		Since: now.Add(-missingNotesWindow),
	}
}

// Priority bands keep outcome kinds roughly ordered (reconnects above
// stagnation above hygiene above follow-ups) while letting the per-item
// term rank within a band.
const (
	reconnectBase  = 50.0
	reconnectScale = 10.0
	stuckBase      = 40.0
	missingNotes   = 30.0
	followUpBase   = 20.0
	followUpScale  = 10.0
	insightBase    = 10.0
	insightScale   = 10.0

	missingNotesWindow = 7 * 24 * time.Hour
	followUpWindow     = 14 * 24 * time.Hour
	insightWindow      = 14 * 24 * time.Hour

	// Facts below this confidence stay out of the queue.
	insightMinConfidence = 0.8
)

// GenerateOutcomes rebuilds the coaching queue from current scoring state.
// Returns how many new outcomes were added.
func (s *Service) GenerateOutcomes(ctx context.Context) (int, error) {
	candidates, err := s.buildCandidates(ctx)
	if err != nil {
		return 0, err
	}

	added, err := s.engine.Generate(ctx, candidates)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		metrics.RecordOutcomesGenerated(added)
	}
	if active, err := s.engine.Active(ctx); err == nil {
		metrics.UpdateActiveOutcomes(len(active))
	}
	return added, nil
}

// buildCandidates runs every generation rule over the current snapshot.
func (s *Service) buildCandidates(ctx context.Context) ([]outcomes.Candidate, error) {
	now := s.now()

	people, err := s.store.ListPeople(ctx, personFilterAll())
	if err != nil {
		return nil, err
	}

	var out []outcomes.Candidate

	// Rule 1: overdue contacts.
	overdue := 0
	for _, p := range people {
		evidence, err := s.store.ListEvidenceForPerson(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		occurrences := make([]time.Time, 0, len(evidence))
		for _, ev := range evidence {
			if !ev.OccurredAt.After(now) {
				occurrences = append(occurrences, ev.OccurredAt)
			}
		}
		a, err := s.estimator.Assess(occurrences, now)
		if err != nil {
			// Insufficient data or rapid-chat cadence: not scoreable.
			continue
		}
		if !a.Overdue {
			continue
		}
		overdue++
		out = append(out, outcomes.Candidate{
			PersonID:      p.ID,
			CauseKey:      "reconnect:" + p.ID,
			Kind:          model.OutcomeReconnect,
			Title:         "Reconnect with " + p.DisplayName,
			Detail:        fmt.Sprintf("Last contact %.0f days ago, usual rhythm every %.0f days.", a.CurrentGapDays, a.CadenceDays),
			PriorityScore: reconnectBase + reconnectScale*a.OverdueRatio,
			DefaultAction: model.ActionOpenPerson,
		})
	}
	metrics.UpdateTrackedPeople(len(people))
	metrics.UpdateOverduePeople(overdue)

	// Rule 2: stagnant funnel entries.
	latest, err := s.store.LatestEvidenceByPerson(ctx)
	if err != nil {
		return nil, err
	}
	for _, sp := range s.detector.Stuck(people, latest, now) {
		out = append(out, outcomes.Candidate{
			PersonID:      sp.Person.ID,
			CauseKey:      fmt.Sprintf("stuck:%s:%s", sp.Stage, sp.Person.ID),
			Kind:          model.OutcomeStagnantLead,
			Title:         fmt.Sprintf("%s stalled in the %s stage", sp.Person.DisplayName, sp.Stage),
			Detail:        fmt.Sprintf("No activity for %d days.", sp.DaysStuck),
			PriorityScore: stuckBase + float64(sp.DaysStuck),
			DefaultAction: model.ActionOpenPerson,
		})
	}

	// Rule 3: recent meetings without notes.
	recentMeetings, err := s.store.ListEvidence(ctx, recentMeetingFilter(now))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recentMeetings))
	for _, ev := range recentMeetings {
		ids = append(ids, ev.ID)
	}
	noteMap, err := s.store.ListNotesForEvidence(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ev := range recentMeetings {
		if ev.OccurredAt.After(now) || len(noteMap[ev.ID]) > 0 {
			continue
		}
		pid := ""
		if len(ev.PersonIDs) > 0 {
			pid = ev.PersonIDs[0]
		}
		out = append(out, outcomes.Candidate{
			PersonID:      pid,
			EvidenceID:    ev.ID,
			CauseKey:      "missing_notes:" + ev.ID,
			Kind:          model.OutcomeMissingNotes,
			Title:         "Capture notes for a recent meeting",
			Detail:        fmt.Sprintf("Meeting on %s has no notes yet.", ev.OccurredAt.Format("Jan 2")),
			PriorityScore: missingNotes,
			DefaultAction: model.ActionCaptureNote,
		})
	}

	// Rule 4: open action items from analysis.
	actionItems, err := s.store.ListRecentActionItems(ctx, now.Add(-followUpWindow))
	if err != nil {
		return nil, err
	}
	for _, in := range actionItems {
		out = append(out, outcomes.Candidate{
			PersonID:      in.PersonID,
			EvidenceID:    in.EvidenceID,
			CauseKey:      "follow_up:" + in.ID,
			Kind:          model.OutcomeFollowUp,
			Title:         "Follow up: " + in.Body,
			PriorityScore: followUpBase + followUpScale*in.Confidence,
			DefaultAction: model.ActionOpenEvidence,
		})
	}

	// Rule 5: high-confidence facts worth folding into the relationship.
	facts, err := s.store.ListRecentFactInsights(ctx, now.Add(-insightWindow), insightMinConfidence)
	if err != nil {
		return nil, err
	}
	for _, in := range facts {
		out = append(out, outcomes.Candidate{
			PersonID:      in.PersonID,
			EvidenceID:    in.EvidenceID,
			CauseKey:      "insight:" + in.ID,
			Kind:          model.OutcomeInsight,
			Title:         "Worth remembering: " + in.Body,
			PriorityScore: insightBase + insightScale*in.Confidence,
			DefaultAction: model.ActionOpenPerson,
		})
	}

	return out, nil
}

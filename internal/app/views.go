package service

import (
	"context"
	"time"

	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/domain/health"
	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/internal/domain/streaks"
	"github.com/rapporthq/rapport/internal/domain/types"
)

// People returns every unarchived person with their health assessment.
// riskFilter, when set, keeps only assessed people at or above that level;
// overdueOnly keeps only overdue people. People without enough evidence for
// an assessment appear unassessed unless a filter is active.
func (s *Service) People(ctx context.Context, riskFilter string, overdueOnly bool) ([]types.PersonView, error) {
	var minRisk health.Risk
	filtering := riskFilter != ""
	if filtering {
		minRisk = health.ParseRisk(riskFilter)
	}

	people, err := s.store.ListPeople(ctx, repository.PersonFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]types.PersonView, 0, len(people))
	for _, p := range people {
		view, assessed, err := s.assessPerson(ctx, p, now)
		if err != nil {
			return nil, err
		}
		if !assessed && (filtering || overdueOnly) {
			continue
		}
		if filtering && !view.riskValue.AtLeast(minRisk) {
			continue
		}
		if overdueOnly && !view.PersonView.Overdue {
			continue
		}
		out = append(out, view.PersonView)
	}
	return out, nil
}

// Person returns the full detail page for one person.
func (s *Service) Person(ctx context.Context, id string) (types.PersonDetail, error) {
	p, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return types.PersonDetail{}, err
	}

	now := s.now()
	view, _, err := s.assessPerson(ctx, p, now)
	if err != nil {
		return types.PersonDetail{}, err
	}

	evidence, err := s.store.ListEvidenceForPerson(ctx, id)
	if err != nil {
		return types.PersonDetail{}, err
	}
	insights, err := s.store.ListInsightsForPerson(ctx, id)
	if err != nil {
		return types.PersonDetail{}, err
	}

	return types.PersonDetail{
		PersonView: view.PersonView,
		Evidence:   evidence,
		Insights:   insights,
	}, nil
}

// Streaks computes every behavioral counter over the full evidence history.
func (s *Service) Streaks(ctx context.Context) (types.StreakReport, error) {
	evidence, err := s.store.ListEvidence(ctx, repository.EvidenceFilter{})
	if err != nil {
		return types.StreakReport{}, err
	}

	ids := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		ids = append(ids, ev.ID)
	}
	noteMap, err := s.store.ListNotesForEvidence(ctx, ids)
	if err != nil {
		return types.StreakReport{}, err
	}

	people, err := s.store.ListPeople(ctx, repository.PersonFilter{IncludeArchived: true})
	if err != nil {
		return types.StreakReport{}, err
	}
	byID := make(map[string]model.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	now := s.now()
	report := types.StreakReport{
		MeetingNotes:      streaks.MeetingNotesStreak(evidence, noteMap, now),
		SameDayFollowUp:   streaks.SameDayFollowUpStreak(evidence, noteMap, now),
		WeeklyClientTouch: streaks.WeeklyClientTouchStreak(evidence, byID, now),
		WeeklyContent:     streaks.WeeklyContentStreak(evidence, now),
	}

	if worst := streaks.WorstBackToBackDay(evidence, now); worst.Pairs > 0 {
		report.BackToBackDay = worst.Day.Format("2006-01-02")
		report.BackToBackPairs = worst.Pairs
	}
	if load, ok := streaks.BusiestWeekday(evidence, now); ok {
		report.BusiestWeekday = load.Weekday.String()
		report.BusiestAverage = load.Average
	}

	return report, nil
}

// Stuck returns people stagnant in an early funnel stage.
func (s *Service) Stuck(ctx context.Context) ([]types.StuckPersonView, error) {
	people, err := s.store.ListPeople(ctx, repository.PersonFilter{})
	if err != nil {
		return nil, err
	}
	latest, err := s.store.LatestEvidenceByPerson(ctx)
	if err != nil {
		return nil, err
	}

	stuck := s.detector.Stuck(people, latest, s.now())
	out := make([]types.StuckPersonView, 0, len(stuck))
	for _, sp := range stuck {
		out = append(out, types.StuckPersonView{
			Person:    sp.Person,
			Stage:     string(sp.Stage),
			DaysStuck: sp.DaysStuck,
		})
	}
	return out, nil
}

// assessedView pairs the serializable view with the typed risk for
// filtering.
type assessedView struct {
	types.PersonView
	riskValue health.Risk
}

func (s *Service) assessPerson(ctx context.Context, p model.Person, now time.Time) (assessedView, bool, error) {
	evidence, err := s.store.ListEvidenceForPerson(ctx, p.ID)
	if err != nil {
		return assessedView{}, false, err
	}

	occurrences := make([]time.Time, 0, len(evidence))
	for _, ev := range evidence {
		if !ev.OccurredAt.After(now) {
			occurrences = append(occurrences, ev.OccurredAt)
		}
	}

	view := assessedView{PersonView: types.PersonView{Person: p}}
	a, err := s.estimator.Assess(occurrences, now)
	if err != nil {
		// Too little data or rapid-chat rhythm: listed but unscored.
		return view, false, nil
	}

	view.Assessed = true
	view.CadenceDays = a.CadenceDays
	view.CurrentGapDays = a.CurrentGapDays
	view.OverdueRatio = a.OverdueRatio
	view.Risk = a.Risk.String()
	view.Overdue = a.Overdue
	view.PredictedDaysToOverdue = a.PredictedDaysToOverdue
	view.HasPrediction = a.HasPrediction
	view.riskValue = a.Risk
	return view, true, nil
}

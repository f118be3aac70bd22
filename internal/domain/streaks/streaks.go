// Package streaks computes small, human-legible behavioral statistics from
// evidence history. Each detector is independent, stateless, and recomputed
// from scratch on every call: correctness against current data is worth more
// than incremental-update performance at per-user volumes.
package streaks

import (
	"sort"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

const (
	followUpWindow  = 24 * time.Hour
	backToBackGap   = 15 * time.Minute
	defaultDuration = time.Hour
	busyWindowDays  = 30
)

// NotesByEvidence maps an evidence ID to the notes linked to it.
type NotesByEvidence map[string][]model.Note

// MeetingNotesStreak counts, walking backward from the most recent meeting,
// how many consecutive meetings have at least one linked note. The streak
// stops at the first meeting without one.
func MeetingNotesStreak(evidence []model.Evidence, notes NotesByEvidence, now time.Time) int {
	meetings := pastMeetings(evidence, now)

	streak := 0
	for i := len(meetings) - 1; i >= 0; i-- {
		if len(notes[meetings[i].ID]) == 0 {
			break
		}
		streak++
	}
	return streak
}

// SameDayFollowUpStreak counts, walking backward from the most recent
// meeting, consecutive meetings where a linked note was created within 24
// hours after the meeting ended (or started, if it has no end time).
func SameDayFollowUpStreak(evidence []model.Evidence, notes NotesByEvidence, now time.Time) int {
	meetings := pastMeetings(evidence, now)

	streak := 0
	for i := len(meetings) - 1; i >= 0; i-- {
		if !hasPromptNote(meetings[i], notes[meetings[i].ID]) {
			break
		}
		streak++
	}
	return streak
}

func hasPromptNote(ev model.Evidence, notes []model.Note) bool {
	deadline := ev.End().Add(followUpWindow)
	for _, n := range notes {
		if !n.CreatedAt.Before(ev.OccurredAt) && !n.CreatedAt.After(deadline) {
			return true
		}
	}
	return false
}

// WeeklyClientTouchStreak buckets evidence that involves a client-role
// person by ISO week and counts consecutive weeks present, walking backward
// from the current week.
func WeeklyClientTouchStreak(evidence []model.Evidence, people map[string]model.Person, now time.Time) int {
	touched := make(map[weekKey]bool)
	for _, ev := range evidence {
		if ev.OccurredAt.After(now) {
			continue
		}
		for _, pid := range ev.PersonIDs {
			if p, ok := people[pid]; ok && p.HasRole(model.RoleClient) {
				touched[isoWeek(ev.OccurredAt)] = true
				break
			}
		}
	}

	streak := 0
	for week := isoWeek(now); touched[week]; week = week.prev() {
		streak++
	}
	return streak
}

// WeeklyContentStreak counts consecutive ISO weeks, backward from the
// current week, in which at least one piece of content was posted.
func WeeklyContentStreak(evidence []model.Evidence, now time.Time) int {
	posted := make(map[weekKey]bool)
	for _, ev := range evidence {
		if ev.Kind == model.KindPost && !ev.OccurredAt.After(now) {
			posted[isoWeek(ev.OccurredAt)] = true
		}
	}

	streak := 0
	for week := isoWeek(now); posted[week]; week = week.prev() {
		streak++
	}
	return streak
}

type weekKey struct {
	year int
	week int
}

func isoWeek(t time.Time) weekKey {
	y, w := t.ISOWeek()
	return weekKey{year: y, week: w}
}

// prev steps one ISO week back, crossing year boundaries through the actual
// calendar rather than assuming 52 weeks per year.
func (k weekKey) prev() weekKey {
	// Jan 4 is always inside ISO week 1 of its year.
	anchor := time.Date(k.year, time.January, 4, 0, 0, 0, 0, time.UTC)
	anchor = anchor.AddDate(0, 0, (k.week-1)*7)
	return isoWeek(anchor.AddDate(0, 0, -7))
}

// BackToBackDay reports the single worst future day: the day with the most
// adjacent meeting pairs whose gap (next start minus previous end) is at most
// 15 minutes. Meetings without an end time are assumed to run one hour.
type BackToBackDay struct {
	Day   time.Time // midnight in now's location
	Pairs int
}

// WorstBackToBackDay scans future meetings grouped by calendar day in now's
// location. The zero value (Pairs == 0) means no crowded day was found.
func WorstBackToBackDay(evidence []model.Evidence, now time.Time) BackToBackDay {
	loc := now.Location()
	byDay := make(map[time.Time][]model.Evidence)
	for _, ev := range evidence {
		if ev.Kind != model.KindMeeting || !ev.OccurredAt.After(now) {
			continue
		}
		day := localDay(ev.OccurredAt, loc)
		byDay[day] = append(byDay[day], ev)
	}

	var worst BackToBackDay
	for day, meetings := range byDay {
		sort.Slice(meetings, func(i, j int) bool {
			return meetings[i].OccurredAt.Before(meetings[j].OccurredAt)
		})
		pairs := 0
		for i := 1; i < len(meetings); i++ {
			end := meetingEnd(meetings[i-1])
			gap := meetings[i].OccurredAt.Sub(end)
			if gap <= backToBackGap {
				pairs++
			}
		}
		if pairs > worst.Pairs || (pairs == worst.Pairs && pairs > 0 && day.Before(worst.Day)) {
			worst = BackToBackDay{Day: day, Pairs: pairs}
		}
	}
	return worst
}

// localDay is midnight of t's calendar day in loc. Truncate would bucket by
// UTC epoch day instead, and timestamps carrying different locations would
// land in different map buckets even on the same wall-clock day.
func localDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func meetingEnd(ev model.Evidence) time.Time {
	if ev.EndedAt != nil {
		return *ev.EndedAt
	}
	return ev.OccurredAt.Add(defaultDuration)
}

// WeekdayLoad is the average evidence count for the busiest weekday over the
// trailing 30-day window.
type WeekdayLoad struct {
	Weekday time.Weekday
	Average float64
}

// BusiestWeekday buckets the trailing 30 days of evidence by weekday and
// divides by how many times that weekday occurred in the window. Requires
// more than one evidence item in the window to avoid reporting noise.
func BusiestWeekday(evidence []model.Evidence, now time.Time) (WeekdayLoad, bool) {
	cutoff := now.AddDate(0, 0, -busyWindowDays)

	counts := make(map[time.Weekday]int)
	total := 0
	for _, ev := range evidence {
		if ev.OccurredAt.Before(cutoff) || ev.OccurredAt.After(now) {
			continue
		}
		counts[ev.OccurredAt.Weekday()]++
		total++
	}
	if total <= 1 {
		return WeekdayLoad{}, false
	}

	occurrences := weekdayOccurrences(cutoff, now)

	var best WeekdayLoad
	found := false
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		n := counts[wd]
		if n == 0 || occurrences[wd] == 0 {
			continue
		}
		avg := float64(n) / float64(occurrences[wd])
		if !found || avg > best.Average {
			best = WeekdayLoad{Weekday: wd, Average: avg}
			found = true
		}
	}
	return best, found
}

// weekdayOccurrences counts how many times each weekday falls inside
// (from, to].
func weekdayOccurrences(from, to time.Time) map[time.Weekday]int {
	out := make(map[time.Weekday]int)
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		out[d.Weekday()]++
	}
	return out
}

// pastMeetings returns calendar meetings at or before now, sorted ascending
// by occurrence.
func pastMeetings(evidence []model.Evidence, now time.Time) []model.Evidence {
	meetings := make([]model.Evidence, 0, len(evidence))
	for _, ev := range evidence {
		if ev.Kind == model.KindMeeting && !ev.OccurredAt.After(now) {
			meetings = append(meetings, ev)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].OccurredAt.Before(meetings[j].OccurredAt)
	})
	return meetings
}

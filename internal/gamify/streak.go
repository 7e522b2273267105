package gamify

import (
	"fmt"
	"time"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Milestone is a streak length that pays a one-time bonus per run.
type Milestone struct {
	Days int   `json:"days"`
	XP   int64 `json:"xp"`
}

// StreakMilestones lists the milestone bonuses in ascending order.
var StreakMilestones = []Milestone{
	{Days: 7, XP: 100},
	{Days: 14, XP: 250},
	{Days: 30, XP: 500},
	{Days: 100, XP: 1500},
	{Days: 365, XP: 5000},
}

// StreakState is the streak part of the aggregate.
type StreakState struct {
	Current          int
	Longest          int
	Milestone        int // highest milestone already paid in the current run
	LastActivityDate string
}

// StreakStateOf extracts the streak fields of an aggregate.
func StreakStateOf(s models.UserStats) StreakState {
	return StreakState{
		Current:          s.CurrentStreak,
		Longest:          s.LongestStreak,
		Milestone:        s.StreakMilestone,
		LastActivityDate: s.LastActivityDate,
	}
}

// StreakUpdate is the result of recording activity on one day.
type StreakUpdate struct {
	StreakState
	Bonus     int64 `json:"bonus"`
	Continued bool  `json:"continued"`
	Reset     bool  `json:"reset"`
}

// AdvanceStreak records activity on the given calendar day (YYYY-MM-DD).
//
// The run grows by one when the previous activity was the day before, restarts
// at 1 after a gap and is unchanged for further activity on the same day.
// Activity dated before the last recorded day is treated as the same day.
func AdvanceStreak(state StreakState, activityDate string) (StreakUpdate, error) {
	day, err := time.Parse(models.DateLayout, activityDate)
	if err != nil {
		return StreakUpdate{}, fmt.Errorf("parse activity date: %w", err)
	}

	next := state
	upd := StreakUpdate{}

	switch {
	case state.LastActivityDate == "" || state.Current == 0:
		next.Current = 1
		next.Milestone = 0
		next.LastActivityDate = activityDate
	default:
		last, err := time.Parse(models.DateLayout, state.LastActivityDate)
		if err != nil {
			return StreakUpdate{}, fmt.Errorf("parse last activity date: %w", err)
		}
		gap := daysBetween(last, day)
		switch {
		case gap <= 0:
			// same day, nothing to count
		case gap == 1:
			next.Current++
			next.LastActivityDate = activityDate
			upd.Continued = true
		default:
			next.Current = 1
			next.Milestone = 0
			next.LastActivityDate = activityDate
			upd.Reset = true
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}

	for _, m := range StreakMilestones {
		if m.Days > next.Milestone && m.Days <= next.Current {
			upd.Bonus += m.XP
			next.Milestone = m.Days
		}
	}

	upd.StreakState = next
	return upd, nil
}

// EffectiveStreak returns the streak to display on the given day: the stored
// run if it is still alive (activity today or yesterday), otherwise 0.
func EffectiveStreak(s models.UserStats, today string) int {
	if s.LastActivityDate == "" || s.CurrentStreak == 0 {
		return 0
	}
	last, err := time.Parse(models.DateLayout, s.LastActivityDate)
	if err != nil {
		return 0
	}
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return 0
	}
	if daysBetween(last, day) > 1 {
		return 0
	}
	return s.CurrentStreak
}

// NextMilestone returns the next unpaid milestone of the run, or nil when all are paid.
func NextMilestone(s models.UserStats) *Milestone {
	for _, m := range StreakMilestones {
		if m.Days > s.StreakMilestone {
			m := m
			return &m
		}
	}
	return nil
}

// daysBetween counts calendar days from a to b. Both are parsed dates in UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// LocalDate formats t as a calendar day in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(models.DateLayout)
}

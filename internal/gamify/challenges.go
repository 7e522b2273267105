package gamify

import (
	"time"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Challenge rewards per window type.
const (
	DailyRewardXP  int64 = 50
	WeeklyRewardXP int64 = 250
)

// HistoryWindows is how many past windows feed a new target.
const HistoryWindows = 4

// Window is one challenge period [Start, End).
type Window struct {
	Type  models.ChallengeType
	Start time.Time
	End   time.Time
}

// DailyWindow returns the day containing now, starting at local midnight.
func DailyWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return Window{Type: models.ChallengeDaily, Start: start, End: start.AddDate(0, 0, 1)}
}

// WeeklyWindow returns the week containing now, starting Monday at local midnight.
func WeeklyWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
	return Window{Type: models.ChallengeWeekly, Start: start, End: start.AddDate(0, 0, 7)}
}

// Windows returns the current daily and weekly windows.
func Windows(now time.Time, loc *time.Location) []Window {
	return []Window{DailyWindow(now, loc), WeeklyWindow(now, loc)}
}

// RewardFor returns the XP paid for completing a challenge of the given type.
func RewardFor(t models.ChallengeType) int64 {
	if t == models.ChallengeWeekly {
		return WeeklyRewardXP
	}
	return DailyRewardXP
}

// TargetFromHistory returns ceil(avg(values) * 1.1), at least 1.
// Only the first HistoryWindows values are used.
func TargetFromHistory(values []int64) int64 {
	if len(values) > HistoryWindows {
		values = values[:HistoryWindows]
	}
	if len(values) == 0 {
		return 1
	}
	var sum int64
	for _, v := range values {
		if v > 0 {
			sum += v
		}
	}
	n := int64(len(values))
	// ceil(sum/n * 11/10) in integers
	target := (sum*11 + n*10 - 1) / (n * 10)
	if target < 1 {
		return 1
	}
	return target
}

// Generate builds one challenge per metric for a window. history maps each
// metric to the final values of its most recent windows, newest first.
func Generate(subject string, w Window, metrics []models.Metric, history map[models.Metric][]int64, newID func() string) []models.Challenge {
	out := make([]models.Challenge, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, models.Challenge{
			ID:          newID(),
			SubjectID:   subject,
			Type:        w.Type,
			Metric:      m,
			TargetValue: TargetFromHistory(history[m]),
			RewardXP:    RewardFor(w.Type),
			WindowStart: w.Start,
			WindowEnd:   w.End,
			Status:      models.ChallengeActive,
		})
	}
	return out
}

// Advance adds the delta's metric to an active challenge whose window contains
// now. It reports true exactly when this call completed the challenge.
// Completed and expired challenges are frozen.
func Advance(ch *models.Challenge, delta models.StatsDelta, now time.Time) bool {
	if !ch.IsActive() || !ch.Contains(now) {
		return false
	}
	inc := delta.Value(ch.Metric)
	if inc <= 0 {
		return false
	}
	ch.CurrentValue += inc
	if ch.CurrentValue >= ch.TargetValue {
		ch.Status = models.ChallengeCompleted
		done := now
		ch.CompletedAt = &done
		return true
	}
	return false
}

// Expire marks an active challenge expired once now is past its window end.
func Expire(ch *models.Challenge, now time.Time) bool {
	if !ch.IsActive() || !now.After(ch.WindowEnd) {
		return false
	}
	ch.Status = models.ChallengeExpired
	return true
}

package gamify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/models"
)

func TestWindows(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// Wednesday 2026-03-04 01:30 local
	now := time.Date(2026, 3, 4, 1, 30, 0, 0, loc)

	daily := DailyWindow(now, loc)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, loc), daily.Start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, loc), daily.End)

	weekly := WeeklyWindow(now, loc)
	assert.Equal(t, time.Monday, weekly.Start.Weekday())
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), weekly.Start)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), weekly.End)

	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, loc)
	assert.Equal(t, weekly.Start, WeeklyWindow(sunday, loc).Start)

	assert.Len(t, Windows(now, loc), 2)
}

func TestTargetFromHistory(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   int64
	}{
		{"no history", nil, 1},
		{"all zero", []int64{0, 0, 0, 0}, 1},
		{"exact", []int64{10, 10, 10, 10}, 11},
		{"rounds up", []int64{3, 4, 5, 6}, 5}, // avg 4.5 * 1.1 = 4.95
		{"uses last four", []int64{10, 10, 10, 10, 1000}, 11},
		{"single", []int64{1}, 2}, // 1.1 -> 2
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetFromHistory(tt.values))
		})
	}
}

func TestGenerate(t *testing.T) {
	w := DailyWindow(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.UTC)
	n := 0
	newID := func() string { n++; return fmt.Sprintf("id-%d", n) }

	got := Generate("octocat", w,
		[]models.Metric{models.MetricCommits, models.MetricReviews},
		map[models.Metric][]int64{models.MetricCommits: {10, 10, 10, 10}},
		newID)

	require.Len(t, got, 2)
	assert.Equal(t, "id-1", got[0].ID)
	assert.Equal(t, int64(11), got[0].TargetValue)
	assert.Equal(t, int64(1), got[1].TargetValue)
	assert.Equal(t, DailyRewardXP, got[0].RewardXP)
	assert.Equal(t, models.ChallengeActive, got[0].Status)
	assert.Equal(t, w.Start, got[0].WindowStart)
}

func TestAdvance_CompletesOnceThenFreezes(t *testing.T) {
	w := WeeklyWindow(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.UTC)
	ch := models.Challenge{
		Type: models.ChallengeWeekly, Metric: models.MetricCommits,
		TargetValue: 5, RewardXP: WeeklyRewardXP,
		WindowStart: w.Start, WindowEnd: w.End, Status: models.ChallengeActive,
	}
	now := w.Start.Add(time.Hour)

	assert.False(t, Advance(&ch, models.StatsDelta{Reviews: 9}, now), "other metric does not count")
	assert.False(t, Advance(&ch, models.StatsDelta{Commits: 3}, now))
	assert.Equal(t, int64(3), ch.CurrentValue)

	assert.True(t, Advance(&ch, models.StatsDelta{Commits: 2}, now))
	assert.Equal(t, models.ChallengeCompleted, ch.Status)
	require.NotNil(t, ch.CompletedAt)

	assert.False(t, Advance(&ch, models.StatsDelta{Commits: 10}, now))
	assert.Equal(t, int64(5), ch.CurrentValue, "completed challenges are frozen")
}

func TestAdvance_OutsideWindow(t *testing.T) {
	w := DailyWindow(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.UTC)
	ch := models.Challenge{
		Type: models.ChallengeDaily, Metric: models.MetricCommits, TargetValue: 1,
		WindowStart: w.Start, WindowEnd: w.End, Status: models.ChallengeActive,
	}
	assert.False(t, Advance(&ch, models.StatsDelta{Commits: 1}, w.End.Add(time.Minute)))
	assert.Zero(t, ch.CurrentValue)
}

func TestExpire(t *testing.T) {
	w := DailyWindow(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.UTC)
	ch := models.Challenge{WindowStart: w.Start, WindowEnd: w.End, Status: models.ChallengeActive}

	assert.False(t, Expire(&ch, w.End.Add(-time.Second)))
	assert.True(t, Expire(&ch, w.End.Add(time.Second)))
	assert.Equal(t, models.ChallengeExpired, ch.Status)

	done := models.Challenge{WindowStart: w.Start, WindowEnd: w.End, Status: models.ChallengeCompleted}
	assert.False(t, Expire(&done, w.End.Add(time.Hour)))
}

package gamify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/models"
)

func day(base string, offset int) string {
	d, _ := time.Parse(models.DateLayout, base)
	return d.AddDate(0, 0, offset).Format(models.DateLayout)
}

func TestAdvanceStreak_Continuity(t *testing.T) {
	const d = "2026-03-01"
	var state StreakState
	var got []int

	for _, offset := range []int{0, 1, 3} {
		upd, err := AdvanceStreak(state, day(d, offset))
		require.NoError(t, err)
		state = upd.StreakState
		got = append(got, state.Current)
	}

	assert.Equal(t, []int{1, 2, 1}, got)
	assert.Equal(t, 2, state.Longest)
}

func TestAdvanceStreak_SameDayNoDoubleCount(t *testing.T) {
	const d = "2026-03-01"
	state := StreakState{}

	upd, err := AdvanceStreak(state, d)
	require.NoError(t, err)
	state = upd.StreakState

	for i := 0; i < 2; i++ {
		upd, err = AdvanceStreak(state, day(d, 1))
		require.NoError(t, err)
		state = upd.StreakState
	}

	assert.Equal(t, 2, state.Current)
}

func TestAdvanceStreak_EarlierDateIsSameDay(t *testing.T) {
	state := StreakState{Current: 3, Longest: 3, LastActivityDate: "2026-03-05"}
	upd, err := AdvanceStreak(state, "2026-03-04")
	require.NoError(t, err)
	assert.Equal(t, 3, upd.Current)
	assert.Equal(t, "2026-03-05", upd.LastActivityDate)
}

func TestAdvanceStreak_MilestonesOncePerRun(t *testing.T) {
	const d = "2026-01-01"
	state := StreakState{}
	var bonuses []int64

	for i := 0; i < 14; i++ {
		upd, err := AdvanceStreak(state, day(d, i))
		require.NoError(t, err)
		state = upd.StreakState
		bonuses = append(bonuses, upd.Bonus)
	}

	assert.Equal(t, int64(100), bonuses[6], "day 7 pays the 7-day milestone")
	assert.Equal(t, int64(250), bonuses[13], "day 14 pays the 14-day milestone")
	var total int64
	for _, b := range bonuses {
		total += b
	}
	assert.Equal(t, int64(350), total)

	// Same-day resync at 14 pays nothing more
	upd, err := AdvanceStreak(state, day(d, 13))
	require.NoError(t, err)
	assert.Zero(t, upd.Bonus)

	// A gap resets the run; reaching 7 again pays again
	state = upd.StreakState
	upd, err = AdvanceStreak(state, day(d, 20))
	require.NoError(t, err)
	assert.True(t, upd.Reset)
	assert.Equal(t, 0, upd.Milestone)
	state = upd.StreakState
	var again int64
	for i := 21; i <= 26; i++ {
		upd, err = AdvanceStreak(state, day(d, i))
		require.NoError(t, err)
		state = upd.StreakState
		again += upd.Bonus
	}
	assert.Equal(t, 7, state.Current)
	assert.Equal(t, int64(100), again)
	assert.Equal(t, 14, state.Longest)
}

func TestAdvanceStreak_InvalidDate(t *testing.T) {
	_, err := AdvanceStreak(StreakState{}, "yesterday")
	assert.Error(t, err)
}

func TestEffectiveStreak(t *testing.T) {
	s := models.UserStats{CurrentStreak: 5, LastActivityDate: "2026-03-10"}
	assert.Equal(t, 5, EffectiveStreak(s, "2026-03-10"))
	assert.Equal(t, 5, EffectiveStreak(s, "2026-03-11"))
	assert.Equal(t, 0, EffectiveStreak(s, "2026-03-12"))
	assert.Equal(t, 0, EffectiveStreak(models.UserStats{}, "2026-03-12"))
}

func TestNextMilestone(t *testing.T) {
	m := NextMilestone(models.UserStats{StreakMilestone: 7})
	require.NotNil(t, m)
	assert.Equal(t, 14, m.Days)
	assert.Nil(t, NextMilestone(models.UserStats{StreakMilestone: 365}))
}

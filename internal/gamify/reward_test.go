package gamify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/models"
)

func TestXPFor_Weights(t *testing.T) {
	bd := XPFor(models.StatsDelta{
		Commits:       2,
		PRsCreated:    1,
		PRsMerged:     1,
		IssuesCreated: 1,
		IssuesClosed:  1,
		Reviews:       1,
		Stars:         3,
		Contributions: 40,
	})

	assert.Equal(t, int64(20), bd.Commits)
	assert.Equal(t, int64(30), bd.PRsCreated)
	assert.Equal(t, int64(50), bd.PRsMerged)
	assert.Equal(t, int64(15), bd.IssuesCreated)
	assert.Equal(t, int64(40), bd.IssuesClosed)
	assert.Equal(t, int64(25), bd.Reviews)
	assert.Equal(t, int64(15), bd.Stars)
	assert.Equal(t, int64(195), bd.Total())
}

func TestApply_Deterministic(t *testing.T) {
	state := *models.NewUserStats("octocat")
	state.TotalXP = 900
	state.CurrentLevel = LevelFromXP(900)
	delta := models.StatsDelta{Commits: 15, Reviews: 1}
	rc := RewardContext{ActivityDate: "2026-03-02"}

	a, err := Apply(delta, state, rc)
	require.NoError(t, err)
	b, err := Apply(delta, state, rc)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(175), a.XPGained)
	assert.Equal(t, int64(1075), a.State.TotalXP)
	assert.Equal(t, int64(15), a.State.TotalCommits)
	assert.Equal(t, 1, a.State.CurrentStreak)
	assert.Equal(t, "2026-03-02", a.State.LastActivityDate)
}

func TestApply_StarsOnlyDoNotTouchStreak(t *testing.T) {
	state := *models.NewUserStats("octocat")
	r, err := Apply(models.StatsDelta{Stars: 2}, state, RewardContext{ActivityDate: "2026-03-02"})
	require.NoError(t, err)

	assert.Equal(t, int64(10), r.XPGained)
	assert.Nil(t, r.Streak)
	assert.Nil(t, r.Ledger.Streak)
	assert.Equal(t, 0, r.State.CurrentStreak)
}

func TestApply_StreakBonusIsOwnLineItem(t *testing.T) {
	state := *models.NewUserStats("octocat")
	state.CurrentStreak = 6
	state.LongestStreak = 6
	state.LastActivityDate = "2026-03-01"

	r, err := Apply(models.StatsDelta{Commits: 1}, state, RewardContext{ActivityDate: "2026-03-02"})
	require.NoError(t, err)

	assert.Equal(t, int64(10), r.Breakdown.Commits)
	assert.Equal(t, int64(100), r.Breakdown.StreakBonus)
	assert.Equal(t, int64(100), r.StreakBonus)
	assert.Equal(t, int64(110), r.XPGained)
	assert.Equal(t, 7, r.State.CurrentStreak)
	assert.Equal(t, 7, r.State.StreakMilestone)
}

func TestApply_LevelUp(t *testing.T) {
	state := *models.NewUserStats("octocat")
	state.TotalXP = 40

	r, err := Apply(models.StatsDelta{Commits: 1}, state, RewardContext{ActivityDate: "2026-03-02"})
	require.NoError(t, err)

	assert.Equal(t, 1, r.OldLevel)
	assert.Equal(t, 2, r.NewLevel)
	assert.True(t, r.LevelUp)
}

func TestFoldEntry_MatchesApply(t *testing.T) {
	state := *models.NewUserStats("octocat")
	r, err := Apply(models.StatsDelta{Commits: 3, PRsCreated: 1}, state, RewardContext{ActivityDate: "2026-03-02"})
	require.NoError(t, err)

	entry := models.XPHistory{ID: 7, SubjectID: "octocat", ActionType: models.ActionSync, XPAmount: r.XPGained}
	require.NoError(t, entry.SetBreakdown(r.Ledger))

	replayed, err := FoldEntry(state, entry)
	require.NoError(t, err)

	want := r.State
	want.AppliedEntryID = 7
	assert.Equal(t, want, replayed)

	_, err = FoldEntry(replayed, entry)
	assert.Error(t, err, "folding the same entry twice must fail")

	other := entry
	other.ID = 8
	other.SubjectID = "hubot"
	_, err = FoldEntry(replayed, other)
	assert.Error(t, err)
}

package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/codestats"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/models"
)

func TestProgressBar_Filled(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		completed int64
		want      int
	}{
		{"empty", 100, 0, 0},
		{"half", 100, 50, 10},
		{"rounds down", 3, 1, 6},
		{"full", 100, 100, 20},
		{"overflow clamps", 100, 250, 20},
		{"negative", 100, -5, 0},
		{"zero total", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewProgressBar(tt.total, 20)
			bar.Update(tt.completed, "")
			assert.Equal(t, tt.want, bar.Filled())
		})
	}
}

func TestProgressBar_Render(t *testing.T) {
	bar := NewProgressBar(4, 4)
	bar.Update(1, "lvl")
	out := bar.Render()
	assert.Contains(t, out, "█░░░")
	assert.Contains(t, out, "1/4")
	assert.Contains(t, out, "lvl")

	assert.Empty(t, NewProgressBar(0, 4).Render())
	assert.Equal(t, 15, NewProgressBar(10, 0).width)
}

func TestBreakdownLines(t *testing.T) {
	lines := breakdownLines(models.XPBreakdown{Commits: 30, PRsCreated: 30, StreakBonus: 50})
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "commits")
	assert.Contains(t, lines[0], "+30")
	assert.Contains(t, lines[2], "streak bonus")

	assert.Empty(t, breakdownLines(models.XPBreakdown{}))
}

func TestPrintSyncResult(t *testing.T) {
	t.Run("reward", func(t *testing.T) {
		var buf bytes.Buffer
		printSyncResult(&buf, &engine.SyncResult{
			Subject:   "octocat",
			XPGained:  200,
			OldLevel:  1,
			NewLevel:  3,
			LevelUp:   true,
			Breakdown: models.XPBreakdown{Commits: 200},
			NewBadges: []gamify.Badge{{ID: "commits_10", Name: "Committed", Icon: "🔨"}},
			StatsDiffVsPreviousDay: &models.StatsDelta{Commits: 4},
		})
		out := buf.String()
		assert.Contains(t, out, "Synced octocat")
		assert.Contains(t, out, "+200 XP")
		assert.Contains(t, out, "Level up! 1 → 3")
		assert.Contains(t, out, "Committed")
		assert.Contains(t, out, "+4 commits")
	})

	t.Run("baseline", func(t *testing.T) {
		var buf bytes.Buffer
		printSyncResult(&buf, &engine.SyncResult{Subject: "octocat", Baseline: true})
		assert.Contains(t, buf.String(), "Baseline recorded for octocat")
	})

	t.Run("failure served from cache", func(t *testing.T) {
		var buf bytes.Buffer
		printSyncResult(&buf, &engine.SyncResult{
			Subject:   "octocat",
			Err:       &engine.ResultError{Kind: engine.KindNetworkUnavailable, Message: "github unreachable"},
			FromCache: true,
			Snapshot:  &models.StatsSnapshot{FetchedAt: time.Now()},
			Replayed:  2,
		})
		out := buf.String()
		assert.Contains(t, out, "replayed 2 ledger entries")
		assert.Contains(t, out, "github unreachable")
		assert.Contains(t, out, "cached stats from just now")
		assert.NotContains(t, out, "Synced")
	})
}

func TestPrintProfile(t *testing.T) {
	last := time.Now().Add(-2 * time.Hour)
	resp := cache.CachedResponse[engine.Profile]{
		Data: engine.Profile{
			Subject:         "octocat",
			Level:           gamify.LevelProgress{Level: 2, TotalXP: 60, XPIntoLevel: 10, XPToNext: 140},
			EffectiveStreak: 3,
			NextMilestone:   &gamify.Milestone{Days: 7, XP: 100},
			LastSyncAt:      &last,
			Account:         &github.Profile{Login: "octocat", Name: "Octo Cat", PublicRepos: 8, Followers: 42},
		},
		Stale: true,
	}

	var buf bytes.Buffer
	printProfile(&buf, resp)
	out := buf.String()
	assert.Contains(t, out, "OCTOCAT")
	assert.Contains(t, out, "60 XP total")
	assert.Contains(t, out, "Octo Cat · 8 public repos · 42 followers")
	assert.Contains(t, out, "10/150")
	assert.Contains(t, out, "next bonus at 7 days")
	assert.Contains(t, out, "stale (last sync 2 hours ago)")

	resp.Data.SyncDisabled = true
	buf.Reset()
	printProfile(&buf, resp)
	assert.Contains(t, buf.String(), "gitquest auth reset")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	assert.Contains(t, buf.String(), "No XP history yet")

	grant := models.XPHistory{ID: 3, ActionType: models.ActionManualGrant, XPAmount: 250, CreatedAt: time.Now()}
	require.NoError(t, grant.SetBreakdown(models.LedgerBreakdown{Reason: "hackathon winner"}))

	buf.Reset()
	printHistory(&buf, []models.XPHistory{grant})
	out := buf.String()
	assert.Contains(t, out, "1 entries")
	assert.Contains(t, out, "manual_grant")
	assert.Contains(t, out, "+250 XP")
	assert.Contains(t, out, "hackathon winner")
}

func TestPrintBadges(t *testing.T) {
	var buf bytes.Buffer
	printBadges(&buf, []gamify.BadgeProgress{
		{Badge: gamify.Badge{Name: "First Commit", Icon: "🌱"}, Earned: true},
		{Badge: gamify.Badge{Name: "Committed"}, Current: 9, Target: 10, NearCompletion: true},
	})
	out := buf.String()
	assert.Contains(t, out, "First Commit")
	assert.Contains(t, out, "Committed")
	assert.Contains(t, out, "9/10")
}

func TestPrintLedgerReport(t *testing.T) {
	var buf bytes.Buffer
	printLedgerReport(&buf, &engine.LedgerReport{Subject: "octocat", Entries: 4, LedgerXP: 90, AggregateXP: 60, Pending: 1, PendingXP: 30})
	out := buf.String()
	assert.Contains(t, out, "inconsistent")
	assert.Contains(t, out, "1 pending entries (30 XP)")
}

func TestPrintRateLimit(t *testing.T) {
	var buf bytes.Buffer
	printRateLimit(&buf, &models.RateLimitInfo{
		Core:   models.RateLimit{Limit: 5000, Remaining: 4999},
		Search: models.RateLimit{Limit: 30, Remaining: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "4999/5000")
	assert.Contains(t, out, "2/30")
	assert.Contains(t, out, "not used")
}

func TestPrintCodeStats(t *testing.T) {
	var buf bytes.Buffer
	printCodeStats(&buf, nil)
	assert.Contains(t, buf.String(), "No code stats")

	buf.Reset()
	printCodeStats(&buf, []codestats.Summary{
		{Date: "2024-03-01", Commits: 2, Additions: 10, Deletions: 3},
		{Date: "2024-03-02", Commits: 1, Additions: 5, Deletions: 0},
	})
	out := buf.String()
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "2 day(s), 3 commits, +15/-3 lines")
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", formatTimeSince(now))
	assert.Equal(t, "1 minute ago", formatTimeSince(now.Add(-90*time.Second)))
	assert.Equal(t, "5 hours ago", formatTimeSince(now.Add(-5*time.Hour-time.Minute)))
	assert.Equal(t, "3 days ago", formatTimeSince(now.Add(-73*time.Hour)))
	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Format("2006-01-02"), formatTimeSince(old))
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "issues closed", metricLabel(models.MetricIssuesClosed))
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/codestats"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/models"
)

func printSyncResult(w io.Writer, res *engine.SyncResult) {
	if res.Replayed > 0 {
		_, _ = fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("↺ replayed %d ledger entries from an interrupted sync", res.Replayed)))
	}
	if res.Err != nil {
		_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗ sync failed:"), res.Err.Message)
		if res.FromCache && res.Snapshot != nil {
			_, _ = fmt.Fprintln(w, mutedStyle.Render("  showing cached stats from "+formatTimeSince(res.Snapshot.FetchedAt)))
		}
		return
	}
	if res.Baseline {
		_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"),
			"Baseline recorded for "+res.Subject+". XP is awarded for activity from now on.")
		return
	}

	_, _ = fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("✓"), "Synced "+res.Subject, xpStyle.Render(fmt.Sprintf("+%d XP", res.XPGained)))
	if res.XPGained > 0 {
		for _, line := range breakdownLines(res.Breakdown) {
			_, _ = fmt.Fprintln(w, mutedStyle.Render("    "+line))
		}
	}
	if res.LevelUp {
		_, _ = fmt.Fprintln(w, xpStyle.Render(fmt.Sprintf("  ⬆ Level up! %d → %d", res.OldLevel, res.NewLevel)))
	}
	if res.StreakBonus > 0 {
		_, _ = fmt.Fprintln(w, xpStyle.Render(fmt.Sprintf("  🔥 %d-day streak bonus +%d XP", res.State.CurrentStreak, res.StreakBonus)))
	}
	for _, b := range res.NewBadges {
		_, _ = fmt.Fprintf(w, "  %s %s %s\n", b.Icon, headerStyle.Render(b.Name), mutedStyle.Render(b.Description))
	}
	for _, c := range res.CompletedChallenges {
		_, _ = fmt.Fprintf(w, "  🏁 %s challenge complete: %d %s (+%d XP)\n", c.Type, c.TargetValue, metricLabel(c.Metric), c.RewardXP)
	}
	if d := res.StatsDiffVsPreviousDay; d != nil {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  vs yesterday: %+d commits, %+d PRs, %+d reviews", d.Commits, d.PRsCreated, d.Reviews)))
	}
}

func breakdownLines(b models.XPBreakdown) []string {
	items := []struct {
		label string
		xp    int64
	}{
		{"commits", b.Commits},
		{"pull requests opened", b.PRsCreated},
		{"pull requests merged", b.PRsMerged},
		{"issues opened", b.IssuesCreated},
		{"issues closed", b.IssuesClosed},
		{"reviews", b.Reviews},
		{"stars", b.Stars},
		{"streak bonus", b.StreakBonus},
		{"challenges", b.ChallengeBonus},
		{"manual grant", b.Manual},
	}
	var lines []string
	for _, it := range items {
		if it.xp != 0 {
			lines = append(lines, fmt.Sprintf("%-22s %+d", it.label, it.xp))
		}
	}
	return lines
}

func printProfile(w io.Writer, resp cache.CachedResponse[engine.Profile]) {
	p := resp.Data
	_, _ = fmt.Fprintln(w, headerStyle.Render(strings.ToUpper(p.Subject)))
	_, _ = fmt.Fprintln(w, rule())
	if acct := p.Account; acct != nil {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  %s · %d public repos · %d followers", acct.Name, acct.PublicRepos, acct.Followers)))
	}

	lvl := p.Level
	bar := NewProgressBar(lvl.XPIntoLevel+lvl.XPToNext, 20)
	bar.Update(lvl.XPIntoLevel, "")
	_, _ = fmt.Fprintf(w, "  Level %s  %s  %s\n",
		xpStyle.Render(fmt.Sprintf("%d", lvl.Level)),
		bar.Render(),
		mutedStyle.Render(fmt.Sprintf("%d XP total", lvl.TotalXP)))

	streak := fmt.Sprintf("  Streak  %d day(s), longest %d", p.EffectiveStreak, p.Stats.LongestStreak)
	if p.NextMilestone != nil {
		streak += mutedStyle.Render(fmt.Sprintf("  (next bonus at %d days: +%d XP)", p.NextMilestone.Days, p.NextMilestone.XP))
	}
	_, _ = fmt.Fprintln(w, streak)
	_, _ = fmt.Fprintf(w, "  Badges  %d/%d\n", len(p.Badges), len(p.BadgeProgress))

	if s := p.Snapshot; s != nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "  %d commits · %d PRs (%d merged) · %d issues · %d reviews · %d ★\n",
			s.Commits, s.PRsCreated, s.PRsMerged, s.IssuesCreated, s.Reviews, s.Stars)
	}
	if len(p.Challenges) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, c := range p.Challenges {
			_, _ = fmt.Fprintln(w, "  "+challengeLine(c))
		}
	}

	_, _ = fmt.Fprintln(w)
	switch {
	case p.SyncDisabled:
		_, _ = fmt.Fprintln(w, errorStyle.Render("  Sync disabled: credentials were rejected. Run 'gitquest auth reset' after fixing the token."))
	case p.LastSyncAt == nil:
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  Never synced. Run 'gitquest sync'."))
	case resp.Stale:
		_, _ = fmt.Fprintln(w, warnStyle.Render("  Stats are stale (last sync "+formatTimeSince(*p.LastSyncAt)+"), refreshing in the background."))
	default:
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  Last sync "+formatTimeSince(*p.LastSyncAt)))
	}
	if resp.LastError != "" {
		_, _ = fmt.Fprintln(w, warnStyle.Render("  Last error: "+resp.LastError))
	}
}

func challengeLine(c models.Challenge) string {
	icon := "○"
	switch c.Status {
	case models.ChallengeCompleted:
		icon = successStyle.Render("✓")
	case models.ChallengeExpired:
		icon = mutedStyle.Render("✗")
	}
	return fmt.Sprintf("%s %-6s %d/%d %s %s", icon, c.Type, c.CurrentValue, c.TargetValue,
		metricLabel(c.Metric), mutedStyle.Render(fmt.Sprintf("(+%d XP, ends %s)", c.RewardXP, c.WindowEnd.Format("Mon Jan 2"))))
}

func metricLabel(m models.Metric) string {
	return strings.ReplaceAll(string(m), "_", " ")
}

func printHistory(w io.Writer, entries []models.XPHistory) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No XP history yet. Run 'gitquest sync' to get started.")
		return
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("XP HISTORY (%d entries)", len(entries))))
	_, _ = fmt.Fprintln(w, rule())
	for i := range entries {
		h := &entries[i]
		detail := ""
		if b, err := h.GetBreakdown(); err == nil && b.Reason != "" {
			detail = mutedStyle.Render(" " + b.Reason)
		}
		_, _ = fmt.Fprintf(w, "  #%-5d %s  %-20s %s%s\n", h.ID, h.CreatedAt.Local().Format("2006-01-02 15:04"),
			h.ActionType, xpStyle.Render(fmt.Sprintf("%+d XP", h.XPAmount)), detail)
	}
}

func printBadges(w io.Writer, progress []gamify.BadgeProgress) {
	if len(progress) == 0 {
		_, _ = fmt.Fprintln(w, "No badges earned yet.")
		return
	}
	for _, p := range progress {
		if p.Earned {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", p.Badge.Icon, headerStyle.Render(p.Badge.Name), mutedStyle.Render(p.Badge.Description))
			continue
		}
		bar := NewProgressBar(p.Target, 10)
		bar.color = colorMuted
		if p.NearCompletion {
			bar.color = colorWarn
		}
		bar.Update(p.Current, "")
		_, _ = fmt.Fprintf(w, "  %s %-20s %s\n", mutedStyle.Render("·"), p.Badge.Name, bar.Render())
	}
}

func printChallenges(w io.Writer, challenges []models.Challenge) {
	if len(challenges) == 0 {
		_, _ = fmt.Fprintln(w, "No challenges. They are generated on sync and at the start of each day and week.")
		return
	}
	for _, c := range challenges {
		_, _ = fmt.Fprintln(w, "  "+challengeLine(c))
	}
}

func printLeaderboard(w io.Writer, stats []models.UserStats) {
	if len(stats) == 0 {
		_, _ = fmt.Fprintln(w, "No subjects tracked yet.")
		return
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render("LEADERBOARD"))
	_, _ = fmt.Fprintln(w, rule())
	for i, s := range stats {
		_, _ = fmt.Fprintf(w, "  %2d. %-20s level %-3d %s\n", i+1, s.SubjectID, s.CurrentLevel, xpStyle.Render(fmt.Sprintf("%d XP", s.TotalXP)))
	}
}

func printLedgerReport(w io.Writer, r *engine.LedgerReport) {
	status := successStyle.Render("✓ consistent")
	if !r.Consistent {
		status = errorStyle.Render("✗ inconsistent")
	}
	_, _ = fmt.Fprintf(w, "%s  %s\n", headerStyle.Render("LEDGER "+r.Subject), status)
	_, _ = fmt.Fprintf(w, "  entries    %d\n", r.Entries)
	_, _ = fmt.Fprintf(w, "  ledger XP  %d\n", r.LedgerXP)
	_, _ = fmt.Fprintf(w, "  total XP   %d\n", r.AggregateXP)
	if r.Pending > 0 {
		_, _ = fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %d pending entries (%d XP). Run 'gitquest recover' to apply them.", r.Pending, r.PendingXP)))
	}
}

func printRateLimit(w io.Writer, info *models.RateLimitInfo) {
	_, _ = fmt.Fprintln(w, headerStyle.Render("GITHUB RATE LIMITS"))
	_, _ = fmt.Fprintln(w, rule())
	rows := []struct {
		name string
		rl   models.RateLimit
	}{
		{"core", info.Core},
		{"graphql", info.GraphQL},
		{"search", info.Search},
	}
	for _, r := range rows {
		if r.rl.Limit == 0 {
			_, _ = fmt.Fprintf(w, "  %-8s %s\n", r.name, mutedStyle.Render("not used"))
			continue
		}
		style := successStyle
		if r.rl.Remaining*10 < r.rl.Limit {
			style = warnStyle
		}
		reset := ""
		if !r.rl.ResetAt.IsZero() {
			reset = mutedStyle.Render(" resets " + r.rl.ResetAt.Local().Format("15:04"))
		}
		_, _ = fmt.Fprintf(w, "  %-8s %s%s\n", r.name, style.Render(fmt.Sprintf("%d/%d", r.rl.Remaining, r.rl.Limit)), reset)
	}
	if !info.RecordedAt.IsZero() {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  recorded "+formatTimeSince(info.RecordedAt)))
	}
}

func printCodeStats(w io.Writer, days []codestats.Summary) {
	if len(days) == 0 {
		_, _ = fmt.Fprintln(w, "No code stats. Run 'gitquest codestats scan <repo>...' first.")
		return
	}
	var commits, adds, dels int64
	for _, d := range days {
		commits += d.Commits
		adds += d.Additions
		dels += d.Deletions
		_, _ = fmt.Fprintf(w, "  %s  %3d commits  %s %s\n", d.Date, d.Commits,
			successStyle.Render(fmt.Sprintf("+%d", d.Additions)), errorStyle.Render(fmt.Sprintf("-%d", d.Deletions)))
	}
	_, _ = fmt.Fprintln(w, rule())
	_, _ = fmt.Fprintf(w, "  %d day(s), %d commits, +%d/-%d lines\n", len(days), commits, adds, dels)
}

// formatTimeSince formats a duration since a time in a human-readable way.
func formatTimeSince(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

package gamify

import (
	"fmt"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// XPWeights are the per-unit XP values of each metric.
type XPWeights struct {
	Commit       int64
	PRCreated    int64
	PRMerged     int64
	IssueCreated int64
	IssueClosed  int64
	Review       int64
	Star         int64
}

// DefaultWeights are the XP values used for every reward.
var DefaultWeights = XPWeights{
	Commit:       10,
	PRCreated:    30,
	PRMerged:     50,
	IssueCreated: 15,
	IssueClosed:  40,
	Review:       25,
	Star:         5,
}

// XPFor prices a delta with the default weights. Contributions carry no XP.
func XPFor(d models.StatsDelta) models.XPBreakdown {
	w := DefaultWeights
	return models.XPBreakdown{
		Commits:       d.Commits * w.Commit,
		PRsCreated:    d.PRsCreated * w.PRCreated,
		PRsMerged:     d.PRsMerged * w.PRMerged,
		IssuesCreated: d.IssuesCreated * w.IssueCreated,
		IssuesClosed:  d.IssuesClosed * w.IssueClosed,
		Reviews:       d.Reviews * w.Review,
		Stars:         d.Stars * w.Star,
	}
}

// RewardContext carries inputs to Apply that are not part of the delta.
type RewardContext struct {
	// ActivityDate is the calendar day (YYYY-MM-DD) credited with the delta's activity.
	ActivityDate string
}

// Reward is the outcome of pricing one delta against an aggregate.
type Reward struct {
	Breakdown   models.XPBreakdown
	XPGained    int64
	StreakBonus int64
	Streak      *StreakUpdate
	Ledger      models.LedgerBreakdown
	State       models.UserStats
	OldLevel    int
	NewLevel    int
	LevelUp     bool
}

// Apply prices a delta against the current aggregate.
//
// It returns the breakdown to record in the ledger and the aggregate that
// results from folding that entry. Calling Apply twice with the same delta and
// the same prior state yields identical results; the caller guarantees it is
// only durably recorded once.
func Apply(delta models.StatsDelta, state models.UserStats, rc RewardContext) (Reward, error) {
	bd := XPFor(delta)

	var streak *StreakUpdate
	var effect *models.StreakEffect
	if delta.HasActivity() && rc.ActivityDate != "" {
		upd, err := AdvanceStreak(StreakStateOf(state), rc.ActivityDate)
		if err != nil {
			return Reward{}, err
		}
		bd.StreakBonus = upd.Bonus
		streak = &upd
		effect = &models.StreakEffect{
			ActivityDate: upd.LastActivityDate,
			Current:      upd.Current,
			Longest:      upd.Longest,
			Milestone:    upd.Milestone,
		}
	}

	lb := models.LedgerBreakdown{
		XP:     bd,
		Delta:  delta,
		Streak: effect,
	}
	xp := bd.Total()
	next := Fold(state, xp, lb)

	return Reward{
		Breakdown:   bd,
		XPGained:    xp,
		StreakBonus: bd.StreakBonus,
		Streak:      streak,
		Ledger:      lb,
		State:       next,
		OldLevel:    state.CurrentLevel,
		NewLevel:    next.CurrentLevel,
		LevelUp:     next.CurrentLevel > state.CurrentLevel,
	}, nil
}

// Fold applies the effects of one ledger entry to an aggregate. It is the
// only state transition of the aggregate besides the entry cursor.
func Fold(state models.UserStats, xp int64, b models.LedgerBreakdown) models.UserStats {
	state.TotalXP += xp
	if level := LevelFromXP(state.TotalXP); level > state.CurrentLevel {
		state.CurrentLevel = level
	}

	state.TotalCommits += b.Delta.Commits
	state.TotalPRs += b.Delta.PRsCreated
	state.TotalReviews += b.Delta.Reviews
	state.TotalIssues += b.Delta.IssuesCreated

	if b.Streak != nil {
		state.CurrentStreak = b.Streak.Current
		state.LongestStreak = b.Streak.Longest
		state.StreakMilestone = b.Streak.Milestone
		state.LastActivityDate = b.Streak.ActivityDate
	}
	return state
}

// FoldEntry applies a persisted ledger entry and advances the entry cursor.
// Entries at or below the cursor are rejected so nothing is applied twice.
func FoldEntry(state models.UserStats, entry models.XPHistory) (models.UserStats, error) {
	if entry.SubjectID != state.SubjectID {
		return state, fmt.Errorf("entry %d belongs to %q, not %q", entry.ID, entry.SubjectID, state.SubjectID)
	}
	if entry.ID <= state.AppliedEntryID {
		return state, fmt.Errorf("entry %d already applied (cursor %d)", entry.ID, state.AppliedEntryID)
	}
	b, err := entry.GetBreakdown()
	if err != nil {
		return state, fmt.Errorf("decode entry %d: %w", entry.ID, err)
	}
	next := Fold(state, entry.XPAmount, b)
	next.AppliedEntryID = entry.ID
	return next, nil
}

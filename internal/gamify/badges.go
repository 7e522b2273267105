package gamify

import (
	"fmt"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// ConditionKind selects the counter a badge condition thresholds.
type ConditionKind string

const (
	CondCommits       ConditionKind = "commits"
	CondPRs           ConditionKind = "prs"
	CondReviews       ConditionKind = "reviews"
	CondIssues        ConditionKind = "issues"
	CondStreak        ConditionKind = "streak"
	CondLongestStreak ConditionKind = "longest_streak"
	CondLevel         ConditionKind = "level"
	CondLanguages     ConditionKind = "languages"
	CondStars         ConditionKind = "stars"
	CondTotalXP       ConditionKind = "total_xp"
)

// NearCompletionRatio is the raw progress ratio from which a badge counts as close.
const NearCompletionRatio = 0.8

// Condition is a threshold on one cumulative counter.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Threshold int64         `json:"threshold"`
}

// BadgeContext is everything a badge condition may look at. Conditions are
// evaluated against cumulative totals, never against a single delta.
type BadgeContext struct {
	State     models.UserStats
	Languages int
	Stars     int64
}

// Value returns the counter the condition thresholds.
func (c Condition) Value(ctx BadgeContext) (int64, error) {
	switch c.Kind {
	case CondCommits:
		return ctx.State.TotalCommits, nil
	case CondPRs:
		return ctx.State.TotalPRs, nil
	case CondReviews:
		return ctx.State.TotalReviews, nil
	case CondIssues:
		return ctx.State.TotalIssues, nil
	case CondStreak:
		return int64(ctx.State.CurrentStreak), nil
	case CondLongestStreak:
		return int64(ctx.State.LongestStreak), nil
	case CondLevel:
		return int64(ctx.State.CurrentLevel), nil
	case CondLanguages:
		return int64(ctx.Languages), nil
	case CondStars:
		return ctx.Stars, nil
	case CondTotalXP:
		return ctx.State.TotalXP, nil
	default:
		return 0, fmt.Errorf("unknown badge condition kind %q", c.Kind)
	}
}

// Met reports whether the condition holds. Unknown kinds never hold.
func (c Condition) Met(ctx BadgeContext) bool {
	v, err := c.Value(ctx)
	return err == nil && v >= c.Threshold
}

// Badge is a catalogue entry.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   Condition `json:"condition"`
}

var catalogue = []Badge{
	{ID: "first_commit", Name: "Hello World", Description: "Make your first tracked commit", Icon: "🌱", Condition: Condition{CondCommits, 1}},
	{ID: "commits_10", Name: "Getting Started", Description: "Make 10 commits", Icon: "🔨", Condition: Condition{CondCommits, 10}},
	{ID: "century", Name: "Century", Description: "Make 100 commits", Icon: "💯", Condition: Condition{CondCommits, 100}},
	{ID: "commits_500", Name: "Committed", Description: "Make 500 commits", Icon: "🏗️", Condition: Condition{CondCommits, 500}},
	{ID: "commits_1000", Name: "Kilocommit", Description: "Make 1000 commits", Icon: "🚀", Condition: Condition{CondCommits, 1000}},
	{ID: "first_pr", Name: "Pull Request Pioneer", Description: "Open your first pull request", Icon: "🔀", Condition: Condition{CondPRs, 1}},
	{ID: "prs_50", Name: "Merge Machine", Description: "Open 50 pull requests", Icon: "⚙️", Condition: Condition{CondPRs, 50}},
	{ID: "reviewer", Name: "Second Pair of Eyes", Description: "Review 10 pull requests", Icon: "👀", Condition: Condition{CondReviews, 10}},
	{ID: "reviews_100", Name: "Gatekeeper", Description: "Review 100 pull requests", Icon: "🛡️", Condition: Condition{CondReviews, 100}},
	{ID: "issue_reporter", Name: "Bug Hunter", Description: "Open 10 issues", Icon: "🐛", Condition: Condition{CondIssues, 10}},
	{ID: "streak_7", Name: "Week Warrior", Description: "Keep a 7 day streak", Icon: "🔥", Condition: Condition{CondStreak, 7}},
	{ID: "streak_30", Name: "Monthly Momentum", Description: "Keep a 30 day streak", Icon: "📅", Condition: Condition{CondStreak, 30}},
	{ID: "streak_100", Name: "Unstoppable", Description: "Keep a 100 day streak", Icon: "⚡", Condition: Condition{CondStreak, 100}},
	{ID: "longest_365", Name: "Year of Code", Description: "Reach a 365 day streak at any time", Icon: "🏆", Condition: Condition{CondLongestStreak, 365}},
	{ID: "level_10", Name: "Apprentice", Description: "Reach level 10", Icon: "⭐", Condition: Condition{CondLevel, 10}},
	{ID: "level_25", Name: "Journeyman", Description: "Reach level 25", Icon: "🌟", Condition: Condition{CondLevel, 25}},
	{ID: "level_50", Name: "Expert", Description: "Reach level 50", Icon: "💫", Condition: Condition{CondLevel, 50}},
	{ID: "level_100", Name: "Legend", Description: "Reach level 100", Icon: "👑", Condition: Condition{CondLevel, 100}},
	{ID: "polyglot", Name: "Polyglot", Description: "Own repositories in 5 languages", Icon: "🗣️", Condition: Condition{CondLanguages, 5}},
	{ID: "stargazer", Name: "Stargazer", Description: "Receive 100 stars", Icon: "✨", Condition: Condition{CondStars, 100}},
	{ID: "xp_10000", Name: "Seasoned", Description: "Earn 10000 XP", Icon: "🎖️", Condition: Condition{CondTotalXP, 10000}},
}

// Catalogue returns a copy of every badge definition.
func Catalogue() []Badge {
	out := make([]Badge, len(catalogue))
	copy(out, catalogue)
	return out
}

// BadgeByID returns a badge definition.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range catalogue {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// NewlyEarned returns the catalogue badges whose condition holds and which
// are not yet in the earned set, in catalogue order.
func NewlyEarned(ctx BadgeContext, earned map[string]bool) []Badge {
	var out []Badge
	for _, b := range catalogue {
		if earned[b.ID] {
			continue
		}
		if b.Condition.Met(ctx) {
			out = append(out, b)
		}
	}
	return out
}

// BadgeProgress reports how close a subject is to a badge.
type BadgeProgress struct {
	Badge          Badge   `json:"badge"`
	Current        int64   `json:"current"`
	Target         int64   `json:"target"`
	Ratio          float64 `json:"ratio"`   // raw, may exceed 1
	Percent        float64 `json:"percent"` // clamped to [0, 100]
	Earned         bool    `json:"earned"`
	NearCompletion bool    `json:"near_completion"`
}

// ProgressFor computes the progress of one badge.
func ProgressFor(b Badge, ctx BadgeContext, earned bool) BadgeProgress {
	current, _ := b.Condition.Value(ctx)
	p := BadgeProgress{
		Badge:   b,
		Current: current,
		Target:  b.Condition.Threshold,
		Earned:  earned,
	}
	if p.Target > 0 {
		p.Ratio = float64(current) / float64(p.Target)
	} else {
		p.Ratio = 1
	}
	p.Percent = clampPercent(p.Ratio * 100)
	p.NearCompletion = !earned && p.Ratio >= NearCompletionRatio && p.Ratio < 1
	return p
}

// AllProgress computes progress for the whole catalogue.
func AllProgress(ctx BadgeContext, earned map[string]bool) []BadgeProgress {
	out := make([]BadgeProgress, 0, len(catalogue))
	for _, b := range catalogue {
		out = append(out, ProgressFor(b, ctx, earned[b.ID]))
	}
	return out
}

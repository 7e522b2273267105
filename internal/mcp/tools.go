package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Every tool taking a subject falls back to the configured GitHub user.
const subjectDescription = "GitHub login (default: the configured github.user)"

func profileTool() mcp.Tool {
	return mcp.NewTool("gitquest_profile",
		mcp.WithDescription("Get a GitHub user's progress: total XP, level, streak, earned badges, badge progress and active challenges. Served from local state; a stale snapshot triggers a background refresh."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
	)
}

func statsTool() mcp.Tool {
	return mcp.NewTool("gitquest_stats",
		mcp.WithDescription("Get the latest GitHub activity snapshot (commits, pull requests, issues, reviews, stars, languages) with its cache freshness."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
	)
}

func badgesTool() mcp.Tool {
	return mcp.NewTool("gitquest_badges",
		mcp.WithDescription("List every badge with the subject's progress towards it. Earned badges are flagged."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
		mcp.WithBoolean("earned_only",
			mcp.Description("Only return earned badges (default: false)"),
		),
	)
}

func challengesTool() mcp.Tool {
	return mcp.NewTool("gitquest_challenges",
		mcp.WithDescription("List daily and weekly challenges, newest window first."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
		mcp.WithBoolean("active_only",
			mcp.Description("Only return challenges of the current windows (default: true)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 20, max: 100)"),
		),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("gitquest_history",
		mcp.WithDescription("List XP ledger entries, newest first, with their itemized breakdown."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 20, max: 100)"),
		),
	)
}

func leaderboardTool() mcp.Tool {
	return mcp.NewTool("gitquest_leaderboard",
		mcp.WithDescription("Rank every tracked subject by total XP."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10, max: 50)"),
		),
	)
}

func rateLimitTool() mcp.Tool {
	return mcp.NewTool("gitquest_rate_limit",
		mcp.WithDescription("Get the GitHub API rate limit recorded by the last sync."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
	)
}

func codeStatsTool() mcp.Tool {
	return mcp.NewTool("gitquest_code_stats",
		mcp.WithDescription("Get per-day commits, additions and deletions scanned from local repositories."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
		mcp.WithNumber("days",
			mcp.Description("Number of days to include, today included (default: 30, max: 365)"),
		),
	)
}

func syncTool() mcp.Tool {
	return mcp.NewTool("gitquest_sync",
		mcp.WithDescription("Fetch fresh activity from GitHub and award XP, badges and challenge rewards for what changed. Fails fast when a sync of the subject is already running."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
	)
}

func verifyLedgerTool() mcp.Tool {
	return mcp.NewTool("gitquest_verify_ledger",
		mcp.WithDescription("Check that the subject's total XP equals the sum of its XP ledger. Optionally replay entries recorded but not yet applied."),
		mcp.WithString("subject", mcp.Description(subjectDescription)),
		mcp.WithBoolean("recover",
			mcp.Description("Replay pending ledger entries before verifying (default: false)"),
		),
	)
}

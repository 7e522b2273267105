package telemetry

import (
	"runtime"

	"github.com/asteroid-belt/gitquest/pkg/version"
)

// Event names - CLI
const (
	EventAppStarted         = "app_started"
	EventAppExited          = "app_exited"
	EventCLICommandExecuted = "cli_command_executed"
	EventCLIErrorOccurred   = "cli_error_occurred"
)

// Event names - Sync
const (
	EventSyncCompleted      = "sync_completed"
	EventSyncFailed         = "sync_failed"
	EventLevelUp            = "level_up"
	EventBadgeEarned        = "badge_earned"
	EventChallengeCompleted = "challenge_completed"
	EventXPGranted          = "xp_granted"
	EventLedgerRecovered    = "ledger_recovered"
)

// Event names - Read models
const (
	EventProfileViewed    = "profile_viewed"
	EventCodeStatsScanned = "code_stats_scanned"
	EventMCPToolCalled    = "mcp_tool_called"
)

// baseProperties returns common properties for all events.
func baseProperties() map[string]interface{} {
	return map[string]interface{}{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"version":    version.Short(),
		"prerelease": version.IsPrerelease(),
		"dev_build":  version.IsDevBuild(),
	}
}

// --- CLI Tracking Methods ---

// TrackAppStarted tracks application startup.
func (c *posthogClient) TrackAppStarted(mode string) {
	props := baseProperties()
	props["mode"] = mode
	c.Track(EventAppStarted, props)
}

// TrackAppExited tracks application exit.
func (c *posthogClient) TrackAppExited(mode string, sessionDurationMs int64) {
	props := baseProperties()
	props["mode"] = mode
	props["session_duration_ms"] = sessionDurationMs
	c.Track(EventAppExited, props)
}

// TrackCLICommandExecuted tracks CLI command execution.
func (c *posthogClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {
	props := baseProperties()
	props["command_name"] = commandName
	props["has_flags"] = hasFlags
	props["execution_duration_ms"] = durationMs
	c.Track(EventCLICommandExecuted, props)
}

// TrackCLIError tracks CLI errors.
func (c *posthogClient) TrackCLIError(commandName, errorType string) {
	props := baseProperties()
	props["command_name"] = commandName
	props["error_type"] = errorType
	c.Track(EventCLIErrorOccurred, props)
}

// --- Sync Tracking Methods ---

// TrackSyncCompleted tracks a successful sync cycle. No counters or subject
// names are sent, only the reward summary.
func (c *posthogClient) TrackSyncCompleted(xpGained int64, levelUp bool, newBadges int, durationMs int64) {
	props := baseProperties()
	props["xp_gained"] = xpGained
	props["level_up"] = levelUp
	props["new_badges"] = newBadges
	props["duration_ms"] = durationMs
	c.Track(EventSyncCompleted, props)
}

// TrackSyncFailed tracks a failed sync cycle by error kind.
func (c *posthogClient) TrackSyncFailed(errorKind string, servedStale bool) {
	props := baseProperties()
	props["error_kind"] = errorKind
	props["served_stale"] = servedStale
	c.Track(EventSyncFailed, props)
}

// TrackLevelUp tracks reaching a new level.
func (c *posthogClient) TrackLevelUp(newLevel int) {
	props := baseProperties()
	props["new_level"] = newLevel
	c.Track(EventLevelUp, props)
}

// TrackBadgeEarned tracks a newly earned badge.
func (c *posthogClient) TrackBadgeEarned(badgeID string) {
	props := baseProperties()
	props["badge_id"] = badgeID
	c.Track(EventBadgeEarned, props)
}

// TrackChallengeCompleted tracks a completed challenge.
func (c *posthogClient) TrackChallengeCompleted(challengeType, metric string) {
	props := baseProperties()
	props["challenge_type"] = challengeType
	props["metric"] = metric
	c.Track(EventChallengeCompleted, props)
}

// TrackXPGranted tracks a manual XP grant.
func (c *posthogClient) TrackXPGranted(amount int64) {
	props := baseProperties()
	props["amount"] = amount
	c.Track(EventXPGranted, props)
}

// TrackLedgerRecovered tracks ledger entries replayed on recovery.
func (c *posthogClient) TrackLedgerRecovered(entries int) {
	props := baseProperties()
	props["entries"] = entries
	c.Track(EventLedgerRecovered, props)
}

// --- Read Model Tracking Methods ---

// TrackProfileViewed tracks a profile read and whether it was stale.
func (c *posthogClient) TrackProfileViewed(source string, stale bool) {
	props := baseProperties()
	props["source"] = source
	props["stale"] = stale
	c.Track(EventProfileViewed, props)
}

// TrackCodeStatsScanned tracks a local code stats scan.
func (c *posthogClient) TrackCodeStatsScanned(repoCount, dayCount int) {
	props := baseProperties()
	props["repo_count"] = repoCount
	props["day_count"] = dayCount
	c.Track(EventCodeStatsScanned, props)
}

// TrackMCPToolCalled tracks MCP tool invocations.
func (c *posthogClient) TrackMCPToolCalled(toolName string, durationMs int64, success bool) {
	props := baseProperties()
	props["tool_name"] = toolName
	props["duration_ms"] = durationMs
	props["success"] = success
	c.Track(EventMCPToolCalled, props)
}

// --- No-op implementations ---

func (c *noopClient) TrackAppStarted(mode string)                                        {}
func (c *noopClient) TrackAppExited(mode string, sessionDurationMs int64)                {}
func (c *noopClient) TrackCLICommandExecuted(commandName string, hasFlags bool, d int64) {}
func (c *noopClient) TrackCLIError(commandName, errorType string)                        {}
func (c *noopClient) TrackSyncCompleted(xpGained int64, levelUp bool, newBadges int, durationMs int64) {
}
func (c *noopClient) TrackSyncFailed(errorKind string, servedStale bool)            {}
func (c *noopClient) TrackLevelUp(newLevel int)                                     {}
func (c *noopClient) TrackBadgeEarned(badgeID string)                               {}
func (c *noopClient) TrackChallengeCompleted(challengeType, metric string)          {}
func (c *noopClient) TrackXPGranted(amount int64)                                   {}
func (c *noopClient) TrackLedgerRecovered(entries int)                              {}
func (c *noopClient) TrackProfileViewed(source string, stale bool)                  {}
func (c *noopClient) TrackCodeStatsScanned(repoCount, dayCount int)                 {}
func (c *noopClient) TrackMCPToolCalled(toolName string, durationMs int64, ok bool) {}

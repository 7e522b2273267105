// Package cli provides the command-line interface for GitQuest.
package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

var telemetryClient = telemetry.Noop()

var commandStartTime time.Time

var rootCmd = &cobra.Command{
	Use:   "gitquest",
	Short: "Level up from your GitHub activity",
	Long: `Level up from your GitHub activity

GitQuest syncs your GitHub statistics and turns what changed into XP,
levels, streaks, badges and daily/weekly challenges. Progress is kept in
an append-only XP ledger and stays correct when the API is slow,
rate-limited or unreachable.

Set a token and a default user with GITHUB_TOKEN and GITHUB_USER, or in
config.yaml under the gitquest data directory.

Telemetry:
  Telemetry is enabled by default, always anonymous, and will never track
  logins, repository names or IP addresses.

  Opt-out with:
  	GITQUEST_TELEMETRY_TRACKING_ENABLED=false`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		durationMs := time.Since(commandStartTime).Milliseconds()
		hasFlags := cmd.Flags().NFlag() > 0
		telemetryClient.TrackCLICommandExecuted(cmd.CommandPath(), hasFlags, durationMs)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(challengesCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(rateLimitCmd)
	rootCmd.AddCommand(codeStatsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(daemonCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc == nil {
		tc = telemetry.Noop()
	}
	telemetryClient = tc
	telemetryClient.TrackAppStarted("cli")
	start := time.Now()

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithCommit(version.Commit),
	)

	telemetryClient.TrackAppExited("cli", time.Since(start).Milliseconds())
	return err
}

// trackCLIError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackCLIError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	telemetryClient.TrackCLIError(cmdName, classifyError(err))
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	if errors.Is(err, engine.ErrSyncInProgress) {
		return "sync_in_progress"
	}
	if kind := engine.KindOf(err); kind != "" {
		return string(kind)
	}
	errStr := err.Error()
	switch {
	case containsAny(errStr, "config", "configuration"):
		return "config_error"
	case containsAny(errStr, "database", "db"):
		return "database_error"
	case containsAny(errStr, "network", "timeout", "connection"):
		return "network_error"
	case containsAny(errStr, "permission", "access denied"):
		return "permission_error"
	case containsAny(errStr, "not found", "does not exist"):
		return "not_found_error"
	case containsAny(errStr, "invalid", "parse", "format"):
		return "validation_error"
	default:
		return "unknown_error"
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

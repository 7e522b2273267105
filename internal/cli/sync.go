package cli

import (
	"github.com/spf13/cobra"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:     "sync [user]",
	Aliases: []string{"s"},
	Short:   "Fetch GitHub activity and award XP (alias: s)",
	Long: `Fetch the latest GitHub statistics of a user and award XP for what
changed since the previous sync.

The first sync of a user records a baseline and awards nothing. Later syncs
award XP for new commits, pull requests, issues, reviews and stars, extend
the daily streak, unlock badges and advance challenges.

When GitHub cannot be reached the last cached stats are shown instead.

Examples:
  # Sync the configured user (github.user / GITHUB_USER)
  gitquest sync

  # Sync someone else
  gitquest sync octocat --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the sync result as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("sync", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("sync", err)
	}

	res, err := a.engine.Sync(cmd.Context(), subject)
	if res != nil {
		out := cmd.OutOrStdout()
		if syncJSON {
			if jerr := writeJSON(out, res); jerr != nil && err == nil {
				err = jerr
			}
		} else {
			printSyncResult(out, res)
		}
	}
	return trackCLIError("sync", err)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var leaderboardLimit int

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Rank tracked users by total XP (alias: lb)",
	Args:    cobra.NoArgs,
	RunE:    runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", 10, "Maximum number of users")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("leaderboard", err)
	}
	defer a.Close()

	stats, err := a.db.ListTopUserStats(leaderboardLimit)
	if err != nil {
		return trackCLIError("leaderboard", fmt.Errorf("load leaderboard: %w", err))
	}
	printLeaderboard(cmd.OutOrStdout(), stats)
	return nil
}

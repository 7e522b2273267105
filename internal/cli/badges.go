package cli

import (
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/gitquest/internal/gamify"
)

var (
	badgesAll  bool
	badgesJSON bool
)

var badgesCmd = &cobra.Command{
	Use:   "badges [user]",
	Short: "Show earned badges and progress towards the rest",
	Long: `Show the badges a user has earned. With --all, badges still locked are
listed with their progress; those close to completion are highlighted.

Examples:
  gitquest badges
  gitquest badges --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBadges,
}

func init() {
	badgesCmd.Flags().BoolVarP(&badgesAll, "all", "a", false, "Include badges not earned yet")
	badgesCmd.Flags().BoolVar(&badgesJSON, "json", false, "Print badge progress as JSON")
}

func runBadges(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("badges", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("badges", err)
	}

	resp, err := a.engine.Profile(cmd.Context(), subject)
	if err != nil {
		return trackCLIError("badges", err)
	}
	progress := filterBadges(resp.Data.BadgeProgress, badgesAll)

	out := cmd.OutOrStdout()
	if badgesJSON {
		err = writeJSON(out, progress)
	} else {
		printBadges(out, progress)
	}
	a.engine.WaitRevalidation(revalidationWait)
	return trackCLIError("badges", err)
}

// filterBadges keeps earned badges unless all is set.
func filterBadges(progress []gamify.BadgeProgress, all bool) []gamify.BadgeProgress {
	if all {
		return progress
	}
	var earned []gamify.BadgeProgress
	for _, p := range progress {
		if p.Earned {
			earned = append(earned, p)
		}
	}
	return earned
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/gitquest/internal/models"
)

var (
	challengesAll      bool
	challengesGenerate bool
	challengesJSON     bool
)

var challengesCmd = &cobra.Command{
	Use:   "challenges [user]",
	Short: "Show daily and weekly challenges",
	Long: `Show the challenges of the current day and week. Targets are derived
from recent windows; completing one pays its reward through the XP ledger
on the next sync.

Examples:
  gitquest challenges
  gitquest challenges --all
  gitquest challenges --generate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChallenges,
}

func init() {
	challengesCmd.Flags().BoolVarP(&challengesAll, "all", "a", false, "Include completed and expired challenges")
	challengesCmd.Flags().BoolVar(&challengesGenerate, "generate", false, "Create missing challenges for the current windows first")
	challengesCmd.Flags().BoolVar(&challengesJSON, "json", false, "Print challenges as JSON")
}

func runChallenges(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("challenges", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("challenges", err)
	}

	if challengesGenerate {
		n, err := a.engine.GenerateChallenges(cmd.Context(), subject)
		if err != nil {
			return trackCLIError("challenges", err)
		}
		if !challengesJSON {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d new challenge(s)\n", successStyle.Render("✓"), n)
		}
	}

	var challenges []models.Challenge
	if challengesAll {
		challenges, err = a.db.ListChallenges(subject, 50)
	} else {
		challenges, err = a.db.GetActiveChallenges(subject)
	}
	if err != nil {
		return trackCLIError("challenges", fmt.Errorf("load challenges: %w", err))
	}

	out := cmd.OutOrStdout()
	if challengesJSON {
		return trackCLIError("challenges", writeJSON(out, challenges))
	}
	printChallenges(out, challenges)
	return nil
}

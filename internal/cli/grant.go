package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var grantReason string

var grantCmd = &cobra.Command{
	Use:   "grant <user> <xp>",
	Short: "Grant XP manually through the ledger",
	Long: `Append a manual XP grant to a user's ledger and apply it. The grant
shows up in 'gitquest history' with its reason.

Examples:
  gitquest grant octocat 250 --reason "hackathon winner"`,
	Args: cobra.ExactArgs(2),
	RunE: runGrant,
}

func init() {
	grantCmd.Flags().StringVarP(&grantReason, "reason", "r", "", "Why the XP is granted")
}

func runGrant(cmd *cobra.Command, args []string) error {
	amount, err := parseXP(args[1])
	if err != nil {
		return trackCLIError("grant", err)
	}

	a, err := openApp()
	if err != nil {
		return trackCLIError("grant", err)
	}
	defer a.Close()

	subject, err := a.subject(args[:1])
	if err != nil {
		return trackCLIError("grant", err)
	}

	res, err := a.engine.GrantXP(cmd.Context(), subject, amount, grantReason)
	if err != nil {
		return trackCLIError("grant", err)
	}
	printSyncResult(cmd.OutOrStdout(), res)
	return nil
}

func parseXP(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid XP amount %q: %w", s, err)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("invalid XP amount %d: must be positive", amount)
	}
	return amount, nil
}

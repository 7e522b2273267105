package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify [user]",
	Short: "Check total XP against the XP ledger",
	Long: `Check that a user's total XP equals the sum of the XP ledger. Entries
written by a sync that was interrupted before it finished are reported as
pending; 'gitquest recover' applies them.

Exits with an error when the ledger and the total disagree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

var recoverCmd = &cobra.Command{
	Use:   "recover [user]",
	Short: "Apply ledger entries left pending by an interrupted sync",
	Long: `Replay XP ledger entries that were recorded but not applied, then
verify the ledger. Recovery also runs automatically before every sync.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecover,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the report as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("verify", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("verify", err)
	}

	report, err := a.engine.VerifyLedger(subject)
	if err != nil {
		return trackCLIError("verify", err)
	}
	out := cmd.OutOrStdout()
	if verifyJSON {
		if err := writeJSON(out, report); err != nil {
			return trackCLIError("verify", err)
		}
	} else {
		printLedgerReport(out, report)
	}
	if !report.Consistent {
		return trackCLIError("verify", fmt.Errorf("ledger of %s is inconsistent: ledger %d XP, total %d XP",
			subject, report.LedgerXP, report.AggregateXP))
	}
	return nil
}

func runRecover(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("recover", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("recover", err)
	}

	n, err := a.engine.Recover(cmd.Context(), subject)
	if err != nil {
		return trackCLIError("recover", err)
	}
	out := cmd.OutOrStdout()
	if n == 0 {
		_, _ = fmt.Fprintln(out, successStyle.Render("✓")+" Nothing to recover.")
	} else {
		_, _ = fmt.Fprintf(out, "%s Applied %d pending ledger entries.\n", successStyle.Render("✓"), n)
	}

	report, err := a.engine.VerifyLedger(subject)
	if err != nil {
		return trackCLIError("recover", err)
	}
	printLedgerReport(out, report)
	return nil
}

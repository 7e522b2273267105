package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [user]",
	Short: "List XP ledger entries, newest first",
	Long: `List the XP ledger of a user. Every XP change is an entry: syncs,
challenge rewards and manual grants.

Examples:
  gitquest history
  gitquest history octocat --limit 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("history", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("history", err)
	}

	entries, err := a.db.GetXPHistory(subject, historyLimit)
	if err != nil {
		return trackCLIError("history", fmt.Errorf("load history: %w", err))
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return trackCLIError("history", writeJSON(out, entries))
	}
	printHistory(out, entries)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub credential state",
}

var authResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Re-enable sync after GitHub rejected the token",
	Long: `When GitHub rejects the configured token, gitquest disables sync for all
users so it stops spending requests. Fix the token (GITHUB_TOKEN or
github.token in config.yaml), then run this command to sync again.`,
	Args: cobra.NoArgs,
	RunE: runAuthReset,
}

func init() {
	authCmd.AddCommand(authResetCmd)
}

func runAuthReset(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("auth reset", err)
	}
	defer a.Close()

	if a.cfg.GitHub.Token == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("⚠ No GitHub token configured; sync will keep failing until one is set."))
	}
	if err := a.engine.ResetCredentials(); err != nil {
		return trackCLIError("auth reset", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓")+" Sync re-enabled.")
	return nil
}

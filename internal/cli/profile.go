package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// revalidationWait bounds how long a read command waits for a background
// refresh before exiting.
const revalidationWait = 15 * time.Second

var profileJSON bool

var profileCmd = &cobra.Command{
	Use:   "profile [user]",
	Short: "Show level, streak, badges and challenges",
	Long: `Show the progress of a user from local state.

The profile never waits for GitHub. Stale stats are shown as they are while
a refresh runs in the background.

Examples:
  gitquest profile
  gitquest profile octocat --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "Print the profile as JSON")
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("profile", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("profile", err)
	}

	resp, err := a.engine.Profile(cmd.Context(), subject)
	if err != nil {
		return trackCLIError("profile", err)
	}

	out := cmd.OutOrStdout()
	if profileJSON {
		err = writeJSON(out, resp)
	} else {
		printProfile(out, resp)
	}
	// let a refresh started by the read land before the process exits
	a.engine.WaitRevalidation(revalidationWait)
	return trackCLIError("profile", err)
}

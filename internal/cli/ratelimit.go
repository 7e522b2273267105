package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit [user]",
	Short: "Show the GitHub rate limits recorded by the last sync",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRateLimit,
}

func runRateLimit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("ratelimit", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("ratelimit", err)
	}

	info, err := a.engine.RateLimitStatus(subject)
	if err != nil {
		return trackCLIError("ratelimit", err)
	}
	if info == nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No rate limit recorded for %s yet. Run 'gitquest sync' first.\n", subject)
		return nil
	}
	printRateLimit(cmd.OutOrStdout(), info)
	return nil
}

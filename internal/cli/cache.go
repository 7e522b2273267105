package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the activity cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "ls [user]",
	Short: "List cached entries of a user and their freshness",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheList,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries",
	Long: `Remove cache entries past their TTL. Stale entries are otherwise kept
and served while a refresh runs; the daemon sweeps on cache.sweep_interval.`,
	Args: cobra.NoArgs,
	RunE: runCacheSweep,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("cache ls", err)
	}
	defer a.Close()

	subject, err := a.subject(args)
	if err != nil {
		return trackCLIError("cache ls", err)
	}

	entries, err := a.db.ListCacheEntries(subject)
	if err != nil {
		return trackCLIError("cache ls", fmt.Errorf("list cache entries: %w", err))
	}
	out := cmd.OutOrStdout()
	now := time.Now()
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(out, "Nothing cached for %s.\n", subject)
		return nil
	}
	for _, e := range entries {
		state := successStyle.Render("fresh")
		if e.IsExpired(now) {
			state = warnStyle.Render("stale")
		}
		_, _ = fmt.Fprintf(out, "  %-14s %s  %s\n", e.DataKind, state,
			mutedStyle.Render(fmt.Sprintf("cached %s, expires %s", formatTimeSince(e.FetchedAt), e.ExpiresAt.Local().Format("2006-01-02 15:04"))))
	}
	return nil
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("cache sweep", err)
	}
	defer a.Close()

	n, err := a.engine.SweepCache()
	if err != nil {
		return trackCLIError("cache sweep", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %d expired entries.\n", successStyle.Render("✓"), n)
	return nil
}

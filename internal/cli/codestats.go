package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/gitquest/internal/codestats"
	"github.com/asteroid-belt/gitquest/internal/gamify"
)

var (
	codeStatsUser    string
	codeStatsDays    int
	codeStatsAuthors []string
	codeStatsJSON    bool
)

var codeStatsCmd = &cobra.Command{
	Use:   "codestats",
	Short: "Count daily line changes in local git repositories",
}

var codeStatsScanCmd = &cobra.Command{
	Use:   "scan [repo...]",
	Short: "Scan local repositories for a user's commits",
	Long: `Walk the history of local git repositories and store per-day commits,
additions and deletions of a user. Merge commits are skipped. Rescanning
replaces the stored numbers of the scanned days.

Repositories default to codestats.repos in config.yaml.

Examples:
  gitquest codestats scan ~/src/api ~/src/web
  gitquest codestats scan --user octocat --author octo@example.com --days 7`,
	RunE: runCodeStatsScan,
}

var codeStatsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored daily code stats",
	Args:  cobra.NoArgs,
	RunE:  runCodeStatsShow,
}

func init() {
	codeStatsCmd.PersistentFlags().StringVarP(&codeStatsUser, "user", "u", "", "GitHub login (default: github.user)")
	codeStatsCmd.PersistentFlags().IntVarP(&codeStatsDays, "days", "d", 0, "Days to cover, today included (default: codestats.days)")
	codeStatsScanCmd.Flags().StringSliceVar(&codeStatsAuthors, "author", nil, "Author name or email to count (repeatable, default: the user)")
	codeStatsShowCmd.Flags().BoolVar(&codeStatsJSON, "json", false, "Print days as JSON")

	codeStatsCmd.AddCommand(codeStatsScanCmd)
	codeStatsCmd.AddCommand(codeStatsShowCmd)
}

func runCodeStatsScan(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("codestats scan", err)
	}
	defer a.Close()

	subject, err := a.subject(userArgs())
	if err != nil {
		return trackCLIError("codestats scan", err)
	}
	repos := args
	if len(repos) == 0 {
		repos = a.cfg.CodeStats.Repos
	}
	if len(repos) == 0 {
		return trackCLIError("codestats scan", errors.New("no repositories: pass paths or set codestats.repos"))
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return trackCLIError("codestats scan", err)
	}
	scanner := codestats.NewScanner(a.db, loc)
	res, err := scanner.Scan(cmd.Context(), subject, repos, codestats.Options{
		Days:    a.days(),
		Authors: codeStatsAuthors,
	})
	if err != nil {
		return trackCLIError("codestats scan", err)
	}

	days := make(map[string]bool)
	for _, r := range res.Rows {
		days[r.Date] = true
	}
	telemetryClient.TrackCodeStatsScanned(res.Repos, len(days))

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s Scanned %d repo(s): %d commits on %d day(s)\n",
		successStyle.Render("✓"), res.Repos, res.Commits, len(days))
	for _, e := range res.Errors {
		_, _ = fmt.Fprintln(out, warnStyle.Render("  ⚠ "+e))
	}
	return nil
}

func runCodeStatsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("codestats show", err)
	}
	defer a.Close()

	subject, err := a.subject(userArgs())
	if err != nil {
		return trackCLIError("codestats show", err)
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return trackCLIError("codestats show", err)
	}

	from, to := dayRange(time.Now(), a.days(), loc)
	summary, err := codestats.NewScanner(a.db, loc).Daily(subject, from, to)
	if err != nil {
		return trackCLIError("codestats show", err)
	}

	out := cmd.OutOrStdout()
	if codeStatsJSON {
		return trackCLIError("codestats show", writeJSON(out, summary))
	}
	printCodeStats(out, summary)
	return nil
}

func userArgs() []string {
	if codeStatsUser == "" {
		return nil
	}
	return []string{codeStatsUser}
}

func (a *app) days() int {
	if codeStatsDays > 0 {
		return codeStatsDays
	}
	return a.cfg.CodeStats.Days
}

// dayRange returns the first and last calendar day of a window of days
// ending on now's day.
func dayRange(now time.Time, days int, loc *time.Location) (string, string) {
	if days <= 0 {
		days = 1
	}
	now = now.In(loc)
	return gamify.LocalDate(now.AddDate(0, 0, -(days-1)), loc), gamify.LocalDate(now, loc)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/server"
)

var daemonAddr string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled syncs and the status server",
	Long: `Run in the foreground until interrupted:

  - background syncs of sync.subjects every sync.interval
  - daily and weekly challenge generation at local midnight
  - expired cache sweeps every cache.sweep_interval
  - the HTTP status server on server.addr

Examples:
  gitquest daemon
  gitquest daemon --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&daemonAddr, "addr", "", "Status server address (default: server.addr)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return trackCLIError("daemon", err)
	}
	defer a.Close()

	sc := schedulerConfig(a.cfg)
	if len(sc.Subjects) == 0 {
		// no configured user: keep every subject already in the database fresh
		if sc.Subjects, err = a.db.ListSubjects(); err != nil {
			return trackCLIError("daemon", fmt.Errorf("list subjects: %w", err))
		}
	}
	sched, err := engine.NewScheduler(a.engine, sc)
	if err != nil {
		return trackCLIError("daemon", err)
	}
	sched.Start()
	defer sched.Stop()

	addr := a.cfg.Server.Addr
	if daemonAddr != "" {
		addr = daemonAddr
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s gitquest daemon running (%d jobs, status on %s). Press Ctrl+C to stop.\n",
		successStyle.Render("●"), sched.Entries(), addr)

	if err := server.New(a.engine, a.db, addr).ListenAndServe(cmd.Context()); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("status server failed")
		return trackCLIError("daemon", fmt.Errorf("status server: %w", err))
	}
	return nil
}

// GitQuest - level up from your GitHub activity.
//
// Syncs GitHub statistics and rewards what changed with XP, levels, streaks,
// badges and challenges, kept in an append-only ledger.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asteroid-belt/gitquest/internal/cli"
	"github.com/asteroid-belt/gitquest/internal/config"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Load config and open database for persistent tracking ID
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	dbCfg := db.DefaultConfig(config.GetPaths(cfg).Database)
	dbCfg.Driver = cfg.Database.Driver
	dbCfg.DSN = cfg.Database.DSN
	database, err := db.New(dbCfg)
	if err != nil {
		os.Exit(1)
	}

	telemetryClient := telemetry.New(database)

	err = cli.Execute(ctx, telemetryClient)
	telemetryClient.Close()
	_ = database.Close()
	if err != nil {
		os.Exit(1)
	}
}

// Package main provides the gitquest-mcp server.
//
// gitquest-mcp exposes profiles, badges, challenges, the XP ledger and sync
// through the Model Context Protocol so assistants can read and drive them.
//
// Usage:
//
//	gitquest-mcp [flags]
//
// The server communicates via JSON-RPC 2.0 over stdio (stdin/stdout).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asteroid-belt/gitquest/internal/cli"
	"github.com/asteroid-belt/gitquest/internal/config"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/mcp"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("gitquest-mcp %s\n", version.Short())
		os.Exit(0)
	}

	// Handle --help flag
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		printHelp()
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gitquest-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Open database for persistent tracking ID
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dbCfg := db.DefaultConfig(config.GetPaths(cfg).Database)
	dbCfg.Driver = cfg.Database.Driver
	dbCfg.DSN = cfg.Database.DSN
	database, err := db.New(dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	tc := telemetry.New(database)
	defer tc.Close()

	rt, err := cli.Open(tc)
	if err != nil {
		return err
	}
	defer rt.Close()

	start := time.Now()
	tc.TrackAppStarted("mcp")
	defer func() {
		tc.TrackAppExited("mcp", time.Since(start).Milliseconds())
	}()

	server := mcp.NewServer(rt.Engine, rt.DB, rt.Config, tc)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func printHelp() {
	help := `gitquest-mcp - MCP server for GitQuest

USAGE:
    gitquest-mcp [FLAGS]

FLAGS:
    -h, --help       Print this help message
    -v, --version    Print version information

DESCRIPTION:
    gitquest-mcp is a Model Context Protocol (MCP) server that exposes
    GitQuest profiles, badges, challenges and the XP ledger to MCP clients.

    The server communicates via JSON-RPC 2.0 over stdio (stdin/stdout).
    Logs go to stderr and the gitquest log file.

CONFIGURATION:
    {
      "mcpServers": {
        "gitquest": {
          "type": "stdio",
          "command": "gitquest-mcp",
          "env": { "GITHUB_TOKEN": "...", "GITHUB_USER": "octocat" }
        }
      }
    }

TOOLS PROVIDED:
    gitquest_profile        Level, streak, badges and challenges
    gitquest_stats          Latest GitHub statistics (cached)
    gitquest_badges         Badge progress
    gitquest_challenges     Active or recent challenges
    gitquest_history        XP ledger entries
    gitquest_leaderboard    Subjects ranked by XP
    gitquest_rate_limit     Last recorded GitHub rate limits
    gitquest_code_stats     Daily line changes from local repositories
    gitquest_sync           Sync now and report rewards
    gitquest_verify_ledger  Check total XP against the ledger

RESOURCES PROVIDED:
    gitquest://profile/{subject}    Profile as JSON
    gitquest://badges               Badge catalogue as JSON
`
	fmt.Print(help)
}

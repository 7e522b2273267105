// Package mcp provides the Model Context Protocol server for GitQuest.
//
// The server exposes a subject's progress, ledger and sync operations to
// MCP-compatible clients. It goes through the same engine as the CLI and the
// HTTP API, so tool calls observe the same locking and ledger guarantees.
package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/asteroid-belt/gitquest/internal/codestats"
	"github.com/asteroid-belt/gitquest/internal/config"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

// Server wraps the MCP server with GitQuest-specific functionality.
type Server struct {
	engine    *engine.Engine
	db        *db.DB
	cfg       *config.Config
	codestats *codestats.Scanner
	server    *server.MCPServer
	telemetry telemetry.Client
}

// NewServer creates a new MCP server instance.
func NewServer(e *engine.Engine, database *db.DB, cfg *config.Config, tc telemetry.Client) *Server {
	if tc == nil {
		tc = telemetry.Noop()
	}
	s := &Server{
		engine:    e,
		db:        database,
		cfg:       cfg,
		telemetry: tc,
	}
	s.codestats = codestats.NewScanner(database, s.location())

	s.server = server.NewMCPServer(
		"gitquest",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// location is the zone calendar days are computed in.
func (s *Server) location() *time.Location {
	if s.cfg == nil {
		return time.Local
	}
	loc, err := s.cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// Serve starts the MCP server over stdio.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	// Read models
	s.server.AddTool(profileTool(), s.handleProfile)
	s.server.AddTool(statsTool(), s.handleStats)
	s.server.AddTool(badgesTool(), s.handleBadges)
	s.server.AddTool(challengesTool(), s.handleChallenges)
	s.server.AddTool(historyTool(), s.handleHistory)
	s.server.AddTool(leaderboardTool(), s.handleLeaderboard)
	s.server.AddTool(rateLimitTool(), s.handleRateLimit)
	s.server.AddTool(codeStatsTool(), s.handleCodeStats)

	// Mutations
	s.server.AddTool(syncTool(), s.handleSync)
	s.server.AddTool(verifyLedgerTool(), s.handleVerifyLedger)
}

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourcePrefix+"profile/{subject}",
			"Subject profile",
			mcp.WithTemplateDescription("Level, streak, badges and active challenges of a GitHub user"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleProfileResource,
	)

	s.server.AddResource(
		mcp.NewResource(
			resourcePrefix+"badges",
			"Badge catalogue",
			mcp.WithResourceDescription("Every badge that can be earned and its requirement"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleBadgeCatalogueResource,
	)
}

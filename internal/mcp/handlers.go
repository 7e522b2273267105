package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asteroid-belt/gitquest/internal/codestats"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// Pagination constants for MCP tool handlers.
const (
	defaultListLimit        = 20
	maxListLimit            = 100
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	defaultCodeStatsDays    = 30
	maxCodeStatsDays        = 365
)

// parseLimit extracts and validates a limit parameter from MCP tool arguments.
// Returns defaultVal if not present, caps at maxVal if exceeded.
func parseLimit(arguments map[string]interface{}, defaultVal, maxVal int) int {
	return parsePositive(arguments, "limit", defaultVal, maxVal)
}

func parsePositive(arguments map[string]interface{}, name string, defaultVal, maxVal int) int {
	if l, ok := arguments[name].(float64); ok && l > 0 {
		n := int(l)
		if n > maxVal {
			return maxVal
		}
		return n
	}
	return defaultVal
}

func parseBool(arguments map[string]interface{}, name string, defaultVal bool) bool {
	if b, ok := arguments[name].(bool); ok {
		return b
	}
	return defaultVal
}

// subject resolves the subject argument, falling back to the configured user.
func (s *Server) subject(arguments map[string]interface{}) (string, error) {
	subject, _ := arguments["subject"].(string)
	if subject == "" && s.cfg != nil {
		subject = s.cfg.GitHub.User
	}
	if subject == "" {
		return "", errors.New("subject is required (no github.user configured)")
	}
	if !github.ValidLogin(subject) {
		return "", fmt.Errorf("invalid GitHub login: %q", subject)
	}
	return subject, nil
}

// trackToolCall is a helper to track MCP tool invocations.
func (s *Server) trackToolCall(toolName string, start time.Time, success bool) {
	if s.telemetry != nil {
		durationMs := time.Since(start).Milliseconds()
		s.telemetry.TrackMCPToolCalled(toolName, durationMs, success)
	}
}

// result marshals v as the text content of a tool result.
func (s *Server) result(toolName string, start time.Time, v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		s.trackToolCall(toolName, start, false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	s.trackToolCall(toolName, start, true)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) fail(toolName string, start time.Time, format string, args ...any) (*mcp.CallToolResult, error) {
	s.trackToolCall(toolName, start, false)
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// HistoryEntry is a ledger entry in MCP tool responses.
type HistoryEntry struct {
	ID          uint               `json:"id"`
	ActionType  models.ActionType  `json:"action_type"`
	XPAmount    int64              `json:"xp_amount"`
	XP          models.XPBreakdown `json:"xp"`
	Reason      string             `json:"reason,omitempty"`
	ChallengeID string             `json:"challenge_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// LeaderboardEntry is one ranked subject.
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	Subject string `json:"subject"`
	TotalXP int64  `json:"total_xp"`
	Level   int    `json:"level"`
	Streak  int    `json:"longest_streak"`
}

// SyncResponse summarizes a sync cycle for the LLM.
type SyncResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Result  *engine.SyncResult `json:"result,omitempty"`
}

// LedgerResponse is the outcome of gitquest_verify_ledger.
type LedgerResponse struct {
	Recovered int                  `json:"recovered"`
	Report    *engine.LedgerReport `json:"report"`
}

// handleProfile handles the gitquest_profile tool.
func (s *Server) handleProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_profile", start, "%v", err)
	}

	resp, err := s.engine.Profile(ctx, subject)
	if err != nil {
		return s.fail("gitquest_profile", start, "failed to load profile: %v", err)
	}
	return s.result("gitquest_profile", start, resp)
}

// handleStats handles the gitquest_stats tool.
func (s *Server) handleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_stats", start, "%v", err)
	}

	resp, err := s.engine.Stats(ctx, subject)
	if err != nil {
		return s.fail("gitquest_stats", start, "failed to load stats: %v", err)
	}
	return s.result("gitquest_stats", start, resp)
}

// handleBadges handles the gitquest_badges tool.
func (s *Server) handleBadges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_badges", start, "%v", err)
	}

	resp, err := s.engine.Profile(ctx, subject)
	if err != nil {
		return s.fail("gitquest_badges", start, "failed to load badges: %v", err)
	}

	progress := resp.Data.BadgeProgress
	if parseBool(req.Params.Arguments, "earned_only", false) {
		earned := make([]gamify.BadgeProgress, 0, len(resp.Data.Badges))
		for _, p := range progress {
			if p.Earned {
				earned = append(earned, p)
			}
		}
		progress = earned
	}
	return s.result("gitquest_badges", start, progress)
}

// handleChallenges handles the gitquest_challenges tool.
func (s *Server) handleChallenges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_challenges", start, "%v", err)
	}

	var challenges []models.Challenge
	if parseBool(req.Params.Arguments, "active_only", true) {
		challenges, err = s.db.GetActiveChallenges(subject)
	} else {
		challenges, err = s.db.ListChallenges(subject, parseLimit(req.Params.Arguments, defaultListLimit, maxListLimit))
	}
	if err != nil {
		return s.fail("gitquest_challenges", start, "failed to list challenges: %v", err)
	}
	if challenges == nil {
		challenges = []models.Challenge{}
	}
	return s.result("gitquest_challenges", start, challenges)
}

// handleHistory handles the gitquest_history tool.
func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_history", start, "%v", err)
	}

	limit := parseLimit(req.Params.Arguments, defaultListLimit, maxListLimit)
	entries, err := s.db.GetXPHistory(subject, limit)
	if err != nil {
		return s.fail("gitquest_history", start, "failed to load history: %v", err)
	}

	results := make([]HistoryEntry, 0, len(entries))
	for i := range entries {
		h := &entries[i]
		b, err := h.GetBreakdown()
		if err != nil {
			return s.fail("gitquest_history", start, "corrupt ledger entry %d: %v", h.ID, err)
		}
		results = append(results, HistoryEntry{
			ID:          h.ID,
			ActionType:  h.ActionType,
			XPAmount:    h.XPAmount,
			XP:          b.XP,
			Reason:      b.Reason,
			ChallengeID: b.ChallengeID,
			CreatedAt:   h.CreatedAt,
		})
	}
	return s.result("gitquest_history", start, results)
}

// handleLeaderboard handles the gitquest_leaderboard tool.
func (s *Server) handleLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	limit := parseLimit(req.Params.Arguments, defaultLeaderboardLimit, maxLeaderboardLimit)

	stats, err := s.db.ListTopUserStats(limit)
	if err != nil {
		return s.fail("gitquest_leaderboard", start, "failed to rank subjects: %v", err)
	}
	results := make([]LeaderboardEntry, 0, len(stats))
	for i, st := range stats {
		results = append(results, LeaderboardEntry{
			Rank:    i + 1,
			Subject: st.SubjectID,
			TotalXP: st.TotalXP,
			Level:   st.CurrentLevel,
			Streak:  st.LongestStreak,
		})
	}
	return s.result("gitquest_leaderboard", start, results)
}

// handleRateLimit handles the gitquest_rate_limit tool.
func (s *Server) handleRateLimit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_rate_limit", start, "%v", err)
	}

	info, err := s.engine.RateLimitStatus(subject)
	if err != nil {
		return s.fail("gitquest_rate_limit", start, "failed to load rate limit: %v", err)
	}
	if info == nil {
		return s.fail("gitquest_rate_limit", start, "no rate limit recorded for %s: run gitquest_sync first", subject)
	}
	return s.result("gitquest_rate_limit", start, info)
}

// handleCodeStats handles the gitquest_code_stats tool.
func (s *Server) handleCodeStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_code_stats", start, "%v", err)
	}

	days := parsePositive(req.Params.Arguments, "days", defaultCodeStatsDays, maxCodeStatsDays)
	loc := s.location()
	today := time.Now().In(loc)
	from := gamify.LocalDate(today.AddDate(0, 0, -(days - 1)), loc)
	to := gamify.LocalDate(today, loc)

	summary, err := s.codestats.Daily(subject, from, to)
	if err != nil {
		return s.fail("gitquest_code_stats", start, "failed to load code stats: %v", err)
	}
	if summary == nil {
		summary = []codestats.Summary{}
	}
	return s.result("gitquest_code_stats", start, summary)
}

// handleSync handles the gitquest_sync tool.
func (s *Server) handleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_sync", start, "%v", err)
	}

	res, err := s.engine.TrySync(ctx, subject)
	if errors.Is(err, engine.ErrSyncInProgress) {
		return s.fail("gitquest_sync", start, "a sync of %s is already running", subject)
	}
	if err != nil {
		// A failed cycle may still carry the cached snapshot.
		s.trackToolCall("gitquest_sync", start, false)
		data, merr := json.Marshal(SyncResponse{Success: false, Message: err.Error(), Result: res})
		if merr != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(data))},
			IsError: true,
		}, nil
	}

	msg := fmt.Sprintf("Synced %s: +%d XP", subject, res.XPGained)
	if res.LevelUp {
		msg += fmt.Sprintf(", level %d -> %d", res.OldLevel, res.NewLevel)
	}
	if n := len(res.NewBadges); n > 0 {
		msg += fmt.Sprintf(", %d new badge(s)", n)
	}
	return s.result("gitquest_sync", start, SyncResponse{Success: true, Message: msg, Result: res})
}

// handleVerifyLedger handles the gitquest_verify_ledger tool.
func (s *Server) handleVerifyLedger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	subject, err := s.subject(req.Params.Arguments)
	if err != nil {
		return s.fail("gitquest_verify_ledger", start, "%v", err)
	}

	out := LedgerResponse{}
	if parseBool(req.Params.Arguments, "recover", false) {
		n, err := s.engine.Recover(ctx, subject)
		if err != nil {
			return s.fail("gitquest_verify_ledger", start, "recovery failed: %v", err)
		}
		out.Recovered = n
	}

	report, err := s.engine.VerifyLedger(subject)
	if err != nil {
		return s.fail("gitquest_verify_ledger", start, "failed to verify ledger: %v", err)
	}
	out.Report = report
	return s.result("gitquest_verify_ledger", start, out)
}

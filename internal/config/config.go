// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all gitquest data ($XDG_DATA_HOME/gitquest)
	BaseDir string `koanf:"base_dir" validate:"required"`

	GitHub     GitHubConfig     `koanf:"github"`
	Sync       SyncConfig       `koanf:"sync"`
	Cache      CacheConfig      `koanf:"cache"`
	Challenges ChallengesConfig `koanf:"challenges"`
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	Server     ServerConfig     `koanf:"server"`
	CodeStats  CodeStatsConfig  `koanf:"codestats"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token string `koanf:"token"`
	// User is the default subject when a command is given none.
	User   string `koanf:"user"`
	APIURL string `koanf:"api_url" validate:"omitempty,url"`
	// RateLimit is the client-side request budget per minute (0 = by auth mode).
	RateLimit    int `koanf:"rate_limit" validate:"gte=0"`
	LowRateFloor int `koanf:"low_rate_floor" validate:"gte=0"`
}

// SyncConfig holds sync cycle and scheduling settings.
type SyncConfig struct {
	Interval          time.Duration `koanf:"interval" validate:"gte=0"`
	BackgroundEnabled bool          `koanf:"background_enabled"`
	OnLaunch          bool          `koanf:"on_launch"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	RetryBackoff      time.Duration `koanf:"retry_backoff" validate:"gte=0"`
	// Mode is "wait" or "reject" for a sync requested while one is running.
	Mode string `koanf:"mode" validate:"oneof=wait reject"`
	// Subjects are synced by the daemon. Defaults to github.user.
	Subjects []string `koanf:"subjects"`
}

// CacheConfig holds TTLs per cached data kind.
type CacheConfig struct {
	StatsTTL      time.Duration `koanf:"stats_ttl" validate:"gte=0"`
	ProfileTTL    time.Duration `koanf:"profile_ttl" validate:"gte=0"`
	RateLimitTTL  time.Duration `koanf:"rate_limit_ttl" validate:"gte=0"`
	SnapshotTTL   time.Duration `koanf:"snapshot_ttl" validate:"gte=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

// ChallengesConfig holds challenge generation settings.
type ChallengesConfig struct {
	Metrics []string `koanf:"metrics" validate:"min=1,dive,oneof=commits prs_created prs_merged issues_created issues_closed reviews stars contributions"`
	// Timezone decides calendar days for streaks and challenge windows.
	// Empty means the system timezone.
	Timezone string `koanf:"timezone"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres"`
	// DSN is the postgres connection string. SQLite uses Paths.Database.
	DSN   string `koanf:"dsn" validate:"required_if=Driver postgres"`
	Debug bool   `koanf:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// ServerConfig holds the status HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// CodeStatsConfig holds local repository scanning settings.
type CodeStatsConfig struct {
	Repos []string `koanf:"repos"`
	Days  int      `koanf:"days" validate:"gt=0"`
}

// Location returns the configured challenge timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Challenges.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Challenges.Timezone)
	if err != nil {
		return nil, fmt.Errorf("challenges.timezone: %w", err)
	}
	return loc, nil
}

// ChallengeMetrics returns the configured challenge metrics.
func (c *Config) ChallengeMetrics() []models.Metric {
	out := make([]models.Metric, 0, len(c.Challenges.Metrics))
	for _, m := range c.Challenges.Metrics {
		out = append(out, models.Metric(strings.TrimSpace(m)))
	}
	return out
}

// SyncSubjects returns the subjects the daemon syncs.
func (c *Config) SyncSubjects() []string {
	if len(c.Sync.Subjects) > 0 {
		return c.Sync.Subjects
	}
	if c.GitHub.User != "" {
		return []string{c.GitHub.User}
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	paths := GetPaths(cfg)
	dirs := []string{
		cfg.BaseDir,
		paths.Logs,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// SubjectFromArgs returns the first argument or the configured user.
func (c *Config) SubjectFromArgs(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.GitHub.User != "" {
		return c.GitHub.User, nil
	}
	return "", fmt.Errorf("no user given: pass one or set GITHUB_USER")
}

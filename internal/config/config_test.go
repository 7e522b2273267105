package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// isolate points the base directory at a temp dir and clears variables
// that would leak in from the developer's environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnvVar, dir)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_USER", "")
	t.Chdir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20*time.Second, cfg.Sync.FetchTimeout)
	assert.Equal(t, "wait", cfg.Sync.Mode)
	assert.False(t, cfg.Sync.BackgroundEnabled)
	assert.Equal(t, 30*time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, 2, cfg.Sync.MaxRetries)
	assert.Equal(t, []models.Metric{models.MetricCommits, models.MetricPRsCreated, models.MetricReviews}, cfg.ChallengeMetrics())
	assert.DirExists(t, GetPaths(cfg).Logs)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	yaml := `
github:
  user: octocat
sync:
  interval: 10m
  background_enabled: true
  mode: reject
challenges:
  metrics: [commits, issues_closed]
  timezone: Europe/Berlin
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "octocat", cfg.GitHub.User)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Sync.BackgroundEnabled)
	assert.Equal(t, "reject", cfg.Sync.Mode)
	assert.Equal(t, []string{"commits", "issues_closed"}, cfg.Challenges.Metrics)
	// untouched keys keep their defaults
	assert.Equal(t, 20*time.Second, cfg.Sync.FetchTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sync:\n  max_retries: 5\n"), 0644))
	t.Setenv("GITQUEST_SYNC__MAX_RETRIES", "3")
	t.Setenv("GITQUEST_LOG__LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_WellKnownGitHubVariables(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_USER", "hubot")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "hubot", cfg.GitHub.User)
	assert.Equal(t, []string{"hubot"}, cfg.SyncSubjects())

	t.Setenv("GITQUEST_GITHUB__TOKEN", "ghp_prefixed")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_prefixed", cfg.GitHub.Token)
}

func TestLoad_Dotenv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GITQUEST_SERVER__ADDR=0.0.0.0:9999\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("GITQUEST_SERVER__ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Sync.Mode = "sometimes" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"unknown metric", func(c *Config) { c.Challenges.Metrics = []string{"lines"} }},
		{"no metrics", func(c *Config) { c.Challenges.Metrics = nil }},
		{"zero fetch timeout", func(c *Config) { c.Sync.FetchTimeout = 0 }},
		{"background without interval", func(c *Config) {
			c.Sync.BackgroundEnabled = true
			c.Sync.Interval = 0
		}},
		{"bad timezone", func(c *Config) { c.Challenges.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSubjectFromArgs(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.SubjectFromArgs(nil)
	assert.Error(t, err)

	cfg.GitHub.User = "octocat"
	s, err := cfg.SubjectFromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "octocat", s)

	s, err = cfg.SubjectFromArgs([]string{"hubot"})
	require.NoError(t, err)
	assert.Equal(t, "hubot", s)
}

func TestGetPaths(t *testing.T) {
	cfg := &Config{BaseDir: "/tmp/gq"}
	p := GetPaths(cfg)
	assert.Equal(t, "/tmp/gq/gitquest.db", p.Database)
	assert.Equal(t, "/tmp/gq/config.yaml", p.Config)
	assert.Equal(t, "/tmp/gq/logs", p.Logs)
}

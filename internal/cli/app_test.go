package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/config"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/models"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
	"github.com/asteroid-belt/gitquest/internal/testutil"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.GitHub.User = "octocat"
	cfg.Challenges.Timezone = "UTC"
	return cfg
}

func TestEngineConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.Mode = "reject"
	cfg.Sync.MaxRetries = 3
	cfg.Cache.StatsTTL = time.Minute
	cfg.Challenges.Metrics = []string{"commits", " reviews "}

	tc := telemetry.Noop()
	ecfg, err := engineConfig(cfg, tc)
	require.NoError(t, err)

	assert.Equal(t, engine.SyncModeReject, ecfg.Mode)
	assert.Equal(t, 3, ecfg.MaxRetries)
	assert.Equal(t, cfg.Sync.FetchTimeout, ecfg.FetchTimeout)
	assert.Equal(t, cfg.Sync.RetryBackoff, ecfg.RetryBackoff)
	assert.Equal(t, time.UTC, ecfg.Location)
	assert.Equal(t, []models.Metric{models.MetricCommits, models.MetricReviews}, ecfg.ChallengeMetrics)
	assert.Equal(t, time.Minute, ecfg.CachePolicy.Stats)
	assert.Equal(t, cfg.Cache.ProfileTTL, ecfg.CachePolicy.Profile)
	assert.Equal(t, cfg.Cache.RateLimitTTL, ecfg.CachePolicy.RateLimit)
	assert.Equal(t, cfg.Cache.SnapshotTTL, ecfg.CachePolicy.Snapshot)
	assert.Equal(t, tc, ecfg.Telemetry)
}

func TestEngineConfig_ZeroRetriesDisablesRetry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.MaxRetries = 0

	ecfg, err := engineConfig(cfg, telemetry.Noop())
	require.NoError(t, err)
	assert.Equal(t, -1, ecfg.MaxRetries)
}

func TestEngineConfig_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Challenges.Timezone = "Mars/Olympus_Mons"

	_, err := engineConfig(cfg, telemetry.Noop())
	assert.ErrorContains(t, err, "challenges.timezone")
}

func TestDBConfig(t *testing.T) {
	cfg := testConfig(t)

	c := dbConfig(cfg)
	assert.Equal(t, db.DriverSQLite, c.Driver)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "gitquest.db"), c.Path)
	assert.Equal(t, 1, c.MaxOpenConn)

	cfg.Database.Driver = db.DriverPostgres
	cfg.Database.DSN = "postgres://localhost/gitquest"
	c = dbConfig(cfg)
	assert.Equal(t, db.DriverPostgres, c.Driver)
	assert.Equal(t, "postgres://localhost/gitquest", c.DSN)
	assert.Equal(t, 5, c.MaxIdleConn)
	assert.Equal(t, 10, c.MaxOpenConn)
}

func TestGitHubConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHub.Token = "ghp_test"
	cfg.GitHub.RateLimit = 30

	c := githubConfig(cfg)
	assert.Equal(t, "ghp_test", c.Token)
	assert.Equal(t, cfg.GitHub.APIURL, c.BaseURL)
	assert.Equal(t, 30, c.RateLimit)
	assert.Equal(t, cfg.GitHub.LowRateFloor, c.LowRateFloor)
}

func TestSchedulerConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.BackgroundEnabled = true
	cfg.Sync.Interval = 15 * time.Minute

	sc := schedulerConfig(cfg)
	assert.Equal(t, []string{"octocat"}, sc.Subjects)
	assert.True(t, sc.Background)
	assert.Equal(t, 15*time.Minute, sc.Interval)
	assert.Equal(t, cfg.Sync.OnLaunch, sc.SyncOnLaunch)
	assert.Equal(t, time.Hour, sc.SweepInterval)

	cfg.Sync.Subjects = []string{"mona", "hubot"}
	assert.Equal(t, []string{"mona", "hubot"}, schedulerConfig(cfg).Subjects)
}

func TestAppSubject(t *testing.T) {
	a := &app{cfg: testConfig(t)}

	subject, err := a.subject(nil)
	require.NoError(t, err)
	assert.Equal(t, "octocat", subject)

	subject, err = a.subject([]string{"mona"})
	require.NoError(t, err)
	assert.Equal(t, "mona", subject)

	_, err = a.subject([]string{"../etc"})
	assert.ErrorContains(t, err, "invalid GitHub login")

	a.cfg.GitHub.User = ""
	_, err = a.subject(nil)
	assert.Error(t, err)
}

func TestParseXP(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"250", 250, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseXP(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterBadges(t *testing.T) {
	progress := []gamify.BadgeProgress{
		{Badge: gamify.Badge{ID: "first_commit"}, Earned: true},
		{Badge: gamify.Badge{ID: "commits_10"}},
		{Badge: gamify.Badge{ID: "first_pr"}, Earned: true},
	}

	earned := filterBadges(progress, false)
	require.Len(t, earned, 2)
	assert.Equal(t, "first_commit", earned[0].Badge.ID)
	assert.Equal(t, "first_pr", earned[1].Badge.ID)

	assert.Len(t, filterBadges(progress, true), 3)
	assert.Empty(t, filterBadges(progress[1:2], false))
}

func TestDayRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)

	from, to := dayRange(now, 7, time.UTC)
	assert.Equal(t, "2024-03-04", from)
	assert.Equal(t, "2024-03-10", to)

	from, to = dayRange(now, 0, time.UTC)
	assert.Equal(t, "2024-03-10", from)
	assert.Equal(t, "2024-03-10", to)

	// 01:30 UTC is still the previous day in New York
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	from, to = dayRange(now, 2, ny)
	assert.Equal(t, "2024-03-08", from)
	assert.Equal(t, "2024-03-09", to)
}

func TestCodeStatsDefaults(t *testing.T) {
	a := &app{cfg: testConfig(t)}
	t.Cleanup(func() {
		codeStatsDays = 0
		codeStatsUser = ""
	})

	assert.Equal(t, 30, a.days())
	codeStatsDays = 7
	assert.Equal(t, 7, a.days())

	assert.Nil(t, userArgs())
	codeStatsUser = "mona"
	assert.Equal(t, []string{"mona"}, userArgs())
}

func TestCheckAppVersion(t *testing.T) {
	database := testutil.NewDB(t)

	// dev builds neither compare nor record
	assert.Equal(t, version.RelationUnknown, checkAppVersion(database))
	state, err := database.GetAppState()
	require.NoError(t, err)
	assert.Empty(t, state.AppVersion)

	require.NoError(t, database.SetAppVersion("v9.0.0"))
	assert.Equal(t, version.RelationUnknown, checkAppVersion(database))
	state, err = database.GetAppState()
	require.NoError(t, err)
	assert.Equal(t, "v9.0.0", state.AppVersion)
}

package cli

import (
	"fmt"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/config"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	db     *db.DB
	client *github.Client
	engine *engine.Engine
}

// Runtime exposes the wired engine to binaries other than the CLI.
type Runtime struct {
	Config *config.Config
	DB     *db.DB
	Engine *engine.Engine
	app    *app
}

// Open wires configuration, logging, the database and the engine the way
// CLI commands do. Callers must Close the returned runtime.
func Open(tc telemetry.Client) (*Runtime, error) {
	if tc == nil {
		tc = telemetry.Noop()
	}
	a, err := openAppWith(tc)
	if err != nil {
		return nil, err
	}
	return &Runtime{Config: a.cfg, DB: a.db, Engine: a.engine, app: a}, nil
}

// Close releases everything Open acquired.
func (r *Runtime) Close() {
	r.app.Close()
}

// openApp loads configuration and wires logging, the database, the GitHub
// client and the engine. Callers must Close the returned app.
func openApp() (*app, error) {
	return openAppWith(telemetryClient)
}

func openAppWith(tc telemetry.Client) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	paths := config.GetPaths(cfg)
	if err := log.Init(log.Config{Dir: paths.Logs, Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	database, err := db.New(dbConfig(cfg))
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	checkAppVersion(database)

	client, err := github.NewClient(githubConfig(cfg))
	if err != nil {
		_ = database.Close()
		_ = log.Close()
		return nil, fmt.Errorf("create github client: %w", err)
	}

	ecfg, err := engineConfig(cfg, tc)
	if err != nil {
		_ = database.Close()
		_ = log.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		db:     database,
		client: client,
		engine: engine.New(database, client, ecfg),
	}, nil
}

// checkAppVersion records the running version in the database. A build older
// than the one that last opened the database only warns and leaves the record
// alone; dev builds never record.
func checkAppVersion(database *db.DB) version.Relation {
	state, err := database.GetAppState()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read app state")
		return version.RelationUnknown
	}

	rel := version.RelationTo(state.AppVersion)
	switch rel {
	case version.RelationDowngrade:
		log.Warn().
			Str("database", state.AppVersion).
			Str("running", version.Short()).
			Msg("database was last opened by a newer gitquest")
		return rel
	case version.RelationUpgrade:
		log.Info().Str("from", state.AppVersion).Str("to", version.Short()).Msg("gitquest upgraded")
	}
	if version.IsDevBuild() || state.AppVersion == version.Short() {
		return rel
	}
	if err := database.SetAppVersion(version.Short()); err != nil {
		log.Warn().Err(err).Msg("failed to record app version")
	}
	return rel
}

// Close stops background refreshes and releases the database.
func (a *app) Close() {
	a.engine.Close()
	_ = a.db.Close()
	_ = log.Close()
}

// subject resolves the subject argument of a command.
func (a *app) subject(args []string) (string, error) {
	subject, err := a.cfg.SubjectFromArgs(args)
	if err != nil {
		return "", err
	}
	if !github.ValidLogin(subject) {
		return "", fmt.Errorf("invalid GitHub login: %q", subject)
	}
	return subject, nil
}

func dbConfig(cfg *config.Config) db.Config {
	c := db.DefaultConfig(config.GetPaths(cfg).Database)
	c.Driver = cfg.Database.Driver
	c.DSN = cfg.Database.DSN
	c.Debug = cfg.Database.Debug
	if c.Driver == db.DriverPostgres {
		c.MaxIdleConn = 5
		c.MaxOpenConn = 10
	}
	return c
}

func githubConfig(cfg *config.Config) github.Config {
	return github.Config{
		Token:        cfg.GitHub.Token,
		BaseURL:      cfg.GitHub.APIURL,
		RateLimit:    cfg.GitHub.RateLimit,
		LowRateFloor: cfg.GitHub.LowRateFloor,
	}
}

func engineConfig(cfg *config.Config, tc telemetry.Client) (engine.Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return engine.Config{}, err
	}
	// engine treats zero retries as "use the default"
	retries := cfg.Sync.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return engine.Config{
		Mode:             engine.SyncMode(cfg.Sync.Mode),
		FetchTimeout:     cfg.Sync.FetchTimeout,
		MaxRetries:       retries,
		RetryBackoff:     cfg.Sync.RetryBackoff,
		Location:         loc,
		ChallengeMetrics: cfg.ChallengeMetrics(),
		CachePolicy: cache.Policy{
			Stats:     cfg.Cache.StatsTTL,
			Profile:   cfg.Cache.ProfileTTL,
			RateLimit: cfg.Cache.RateLimitTTL,
			Snapshot:  cfg.Cache.SnapshotTTL,
		},
		Telemetry: tc,
	}, nil
}

func schedulerConfig(cfg *config.Config) engine.SchedulerConfig {
	return engine.SchedulerConfig{
		Subjects:      cfg.SyncSubjects(),
		Background:    cfg.Sync.BackgroundEnabled,
		Interval:      cfg.Sync.Interval,
		SyncOnLaunch:  cfg.Sync.OnLaunch,
		SweepInterval: cfg.Cache.SweepInterval,
	}
}

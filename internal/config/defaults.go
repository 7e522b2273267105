package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),

		GitHub: GitHubConfig{
			APIURL:       "https://api.github.com/",
			LowRateFloor: 100,
		},

		Sync: SyncConfig{
			Interval:          30 * time.Minute,
			BackgroundEnabled: false,
			OnLaunch:          true,
			FetchTimeout:      20 * time.Second,
			MaxRetries:        2,
			RetryBackoff:      2 * time.Second,
			Mode:              "wait",
		},

		Cache: CacheConfig{
			StatsTTL:      30 * time.Minute,
			ProfileTTL:    24 * time.Hour,
			RateLimitTTL:  30 * time.Minute,
			SnapshotTTL:   72 * time.Hour,
			SweepInterval: time.Hour,
		},

		Challenges: ChallengesConfig{
			Metrics: []string{"commits", "prs_created", "reviews"},
		},

		Database: DatabaseConfig{
			Driver: "sqlite",
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},

		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},

		CodeStats: CodeStatsConfig{
			Days: 30,
		},
	}
}

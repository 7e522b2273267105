package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every configuration environment variable.
	// Nested keys use a double underscore: GITQUEST_SYNC__FETCH_TIMEOUT.
	EnvPrefix = "GITQUEST_"

	// ConfigPathEnvVar overrides the config file path.
	ConfigPathEnvVar = "GITQUEST_CONFIG"
)

// Load reads configuration in layers, each overriding the previous one:
// defaults, the YAML config file, a .env file, the environment, and
// finally GITHUB_TOKEN / GITHUB_USER for settings still empty.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := configFile(defaults); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := loadDotenv(GetPaths(defaults).Env); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.User == "" {
		cfg.GitHub.User = os.Getenv("GITHUB_USER")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Sync.BackgroundEnabled && c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive when background sync is enabled")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// configFile returns $GITQUEST_CONFIG or <base>/config.yaml when it exists.
func configFile(cfg *Config) string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	path := GetPaths(cfg).Config
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadDotenv loads ./.env and the .env of the base directory into the
// process environment. Variables already set are left alone.
func loadDotenv(baseEnv string) error {
	for _, path := range []string{".env", baseEnv} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// envTransform maps GITQUEST_SYNC__FETCH_TIMEOUT to sync.fetch_timeout.
// Variables that are not configuration keys are skipped.
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	switch key {
	case "HOME", "CONFIG", "TELEMETRY_TRACKING_ENABLED":
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// HomeEnvVar overrides the base directory.
const HomeEnvVar = "GITQUEST_HOME"

// Paths contains commonly used file paths.
type Paths struct {
	Database string // Main SQLite database
	Config   string // Config file
	Env      string // Dotenv file
	Logs     string // Log directory
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "gitquest.db"),
		Config:   filepath.Join(cfg.BaseDir, "config.yaml"),
		Env:      filepath.Join(cfg.BaseDir, ".env"),
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
	}
}

// DefaultBaseDir returns $GITQUEST_HOME, or gitquest under the XDG data home.
func DefaultBaseDir() string {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return dir
	}
	if xdg.DataHome != "" {
		return filepath.Join(xdg.DataHome, "gitquest")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitquest"
	}
	return filepath.Join(home, ".gitquest")
}

// Package db provides a GORM-based database layer for gitquest.
// It uses the pure-Go SQLite driver by default and PostgreSQL when configured.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps the GORM database connection with gitquest-specific operations.
type DB struct {
	*gorm.DB
	path   string
	driver string
}

// Config holds database configuration options.
type Config struct {
	Driver      string
	Path        string // SQLite file path
	DSN         string // PostgreSQL connection string
	Debug       bool
	MaxIdleConn int
	MaxOpenConn int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Driver:      DriverSQLite,
		Path:        path,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	}
}

// New creates a new database connection and runs migrations.
func New(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		// DELETE journal mode: WAL has visibility issues with the pure-Go driver.
		dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path)
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	wrapped := &DB{DB: db, path: cfg.Path, driver: cfg.Driver}

	if err := wrapped.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := wrapped.seedAppState(); err != nil {
		return nil, fmt.Errorf("seed app state: %w", err)
	}

	return wrapped, nil
}

// migrate runs GORM auto-migrations for all models.
func (db *DB) migrate() error {
	return db.AutoMigrate(
		&models.UserStats{},
		&models.XPHistory{},
		&models.EarnedBadge{},
		&models.Challenge{},
		&models.CacheEntry{},
		&models.DailyCodeStats{},
		&models.SyncMetadata{},
		&models.AppState{},
	)
}

// seedAppState inserts the default application state if not present.
func (db *DB) seedAppState() error {
	state := models.AppState{
		ID:               models.AppStateID,
		CredentialStatus: models.CredentialUnknown,
	}
	return db.Where("id = ?", models.AppStateID).FirstOrCreate(&state).Error
}

// Path returns the database file path. Empty for PostgreSQL.
func (db *DB) Path() string {
	return db.path
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database connection is alive.
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Transaction executes a function within a database transaction.
// The callback receives a *DB wrapper that uses the transaction.
// If the callback returns an error, the transaction is rolled back.
// If the callback returns nil, the transaction is committed.
func (d *DB) Transaction(fc func(tx *DB) error) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		wrappedTx := &DB{DB: tx, path: d.path, driver: d.driver}
		return fc(wrappedTx)
	})
}

// Stats holds aggregate row counts.
type Stats struct {
	Subjects       int64     `json:"subjects"`
	LedgerEntries  int64     `json:"ledger_entries"`
	Badges         int64     `json:"badges"`
	Challenges     int64     `json:"challenges"`
	CacheEntries   int64     `json:"cache_entries"`
	CacheSizeBytes int64     `json:"cache_size_bytes"`
	LastUpdated    time.Time `json:"last_updated"`
}

// GetStats returns aggregate statistics about the database.
func (db *DB) GetStats() (*Stats, error) {
	var stats Stats

	counts := []struct {
		model any
		dst   *int64
		name  string
	}{
		{&models.UserStats{}, &stats.Subjects, "subjects"},
		{&models.XPHistory{}, &stats.LedgerEntries, "ledger entries"},
		{&models.EarnedBadge{}, &stats.Badges, "badges"},
		{&models.Challenge{}, &stats.Challenges, "challenges"},
		{&models.CacheEntry{}, &stats.CacheEntries, "cache entries"},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
	}

	if db.path != "" {
		if info, err := os.Stat(db.path); err == nil {
			stats.CacheSizeBytes = info.Size()
		}
	}

	stats.LastUpdated = time.Now()

	return &stats, nil
}

// Package testutil provides testing utilities.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/db"
)

// SkipLiveTests skips the test unless RUN_LIVE_TESTS and GITHUB_TOKEN are
// set. Use this for tests that call the real GitHub API.
//
// Run live tests with: RUN_LIVE_TESTS=1 GITHUB_TOKEN=... go test ./...
func SkipLiveTests(t *testing.T) string {
	t.Helper()
	if os.Getenv("RUN_LIVE_TESTS") == "" {
		t.Skip("Skipping live test (set RUN_LIVE_TESTS=1 to run)")
	}
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("Skipping live test (GITHUB_TOKEN is not set)")
	}
	return token
}

// NewDB opens a migrated SQLite database in a temporary directory and
// closes it when the test ends.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(db.Config{
		Driver:      db.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	require.NoError(t, Init(Config{Dir: dir, Level: "debug", Format: "json", Console: &console}))
	t.Cleanup(func() { _ = Close() })

	Info().Str("subject", "octocat").Int64("xp", 150).Msg("sync complete")

	assert.Contains(t, console.String(), `"subject":"octocat"`)
	assert.Contains(t, console.String(), `"message":"sync complete"`)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"xp":150`)
}

func TestInit_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn", Format: "json", Console: &console}))
	t.Cleanup(func() {
		_ = Close()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	Info().Msg("hidden")
	Warn().Msg("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestInit_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	require.NoError(t, Init(Config{Dir: dir, Console: &bytes.Buffer{}}))
	t.Cleanup(func() { _ = Close() })

	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.NoError(t, err)
}

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asteroid-belt/gitquest/internal/engine"
)

// =============================================================================
// CHARACTERIZATION TESTS FOR CLI ERROR CLASSIFICATION
// =============================================================================
// These tests capture how errors are bucketed for telemetry. Buckets are
// aggregated across versions, so changing them breaks dashboards.
// =============================================================================

func TestCharacterization_classifyError_EngineKinds(t *testing.T) {
	tests := []struct {
		kind     engine.ErrorKind
		expected string
	}{
		{engine.KindCredentialInvalid, "credential_invalid"},
		{engine.KindRateLimited, "rate_limited"},
		{engine.KindNetworkUnavailable, "network_unavailable"},
		{engine.KindPartialData, "partial_data"},
		{engine.KindPersistenceFailure, "persistence_failure"},
		{engine.KindInvariant, "invariant"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			// the message would match a keyword bucket; the kind wins
			err := &engine.SyncError{Kind: tt.kind, Op: "fetch", Err: errors.New("database connection timeout")}
			assert.Equal(t, tt.expected, classifyError(fmt.Errorf("sync octocat: %w", err)))
		})
	}
}

func TestCharacterization_classifyError_SyncInProgress(t *testing.T) {
	err := fmt.Errorf("sync octocat: %w", engine.ErrSyncInProgress)
	assert.Equal(t, "sync_in_progress", classifyError(err))
}

func TestCharacterization_classifyError_Keywords(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		expected string
	}{
		{"config lowercase", "config file not found", "config_error"},
		{"Config mixed case", "Config is invalid", "config_error"},
		{"database word", "database connection failed", "database_error"},
		{"db abbreviation", "db error occurred", "database_error"},
		{"network", "network unreachable", "network_error"},
		{"timeout", "request timeout", "network_error"},
		{"permission", "permission denied", "permission_error"},
		{"not found", "repository not found", "not_found_error"},
		{"does not exist", "path does not exist", "not_found_error"},
		{"invalid", "invalid XP amount", "validation_error"},
		{"parse", "failed to parse", "validation_error"},
		{"unknown", "something odd", "unknown_error"},
		// config is checked first, so it wins over database
		{"config and db", "config database error", "config_error"},
		// database is checked before network
		{"db and network", "database network failure", "database_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyError(errors.New(tt.errMsg)))
		})
	}
}

func TestCharacterization_containsAny(t *testing.T) {
	// empty substring matches everything
	assert.True(t, containsAny("hello", ""))
	assert.False(t, containsAny("hello world", "foo", "bar", "baz"))
	assert.True(t, containsAny("hello world", "foo", "world", "bar"))

	// only the input is lowercased, not the substrings
	assert.False(t, containsAny("Hello World", "HELLO"))
	assert.True(t, containsAny("Hello World", "hello"))
}

func TestCharacterization_trackCLIError_NilError(t *testing.T) {
	assert.Nil(t, trackCLIError("test-cmd", nil))
}

func TestCharacterization_trackCLIError_ReturnsError(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, trackCLIError("test-cmd", err))
}

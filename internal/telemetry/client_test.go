package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedProvider string

func (p fixedProvider) GetOrCreateTrackingID() string { return string(p) }

func TestNew_DisabledByEnvVar(t *testing.T) {
	t.Setenv("GITQUEST_TELEMETRY_TRACKING_ENABLED", "false")

	client := New(nil)
	_, ok := client.(*noopClient)
	assert.True(t, ok, "Should return noopClient when disabled")
}

func TestNew_DisabledWithoutAPIKey(t *testing.T) {
	originalKey := PostHogAPIKey
	PostHogAPIKey = ""
	defer func() { PostHogAPIKey = originalKey }()

	client := New(fixedProvider("abc"))
	_, ok := client.(*noopClient)
	assert.True(t, ok, "Should return noopClient without API key")
	assert.Empty(t, client.GetTrackingID())
}

func TestNoopClient_DoesNotPanic(t *testing.T) {
	client := Noop()

	client.Track("test_event", map[string]interface{}{"key": "value"})
	client.TrackAppStarted("cli")
	client.TrackAppExited("cli", 5000)
	client.TrackCLICommandExecuted("sync", true, 100)
	client.TrackCLIError("sync", "rate_limited")

	client.TrackSyncCompleted(150, true, 2, 900)
	client.TrackSyncFailed("network_unavailable", true)
	client.TrackLevelUp(5)
	client.TrackBadgeEarned("century")
	client.TrackChallengeCompleted("daily", "commits")
	client.TrackXPGranted(100)
	client.TrackLedgerRecovered(1)

	client.TrackProfileViewed("mcp", false)
	client.TrackCodeStatsScanned(3, 30)
	client.TrackMCPToolCalled("gitquest_profile", 50, true)

	client.Close()
}

func TestBaseProperties(t *testing.T) {
	props := baseProperties()

	assert.Contains(t, props, "os")
	assert.Contains(t, props, "arch")
	assert.Contains(t, props, "version")
	assert.Contains(t, props, "dev_build")
}

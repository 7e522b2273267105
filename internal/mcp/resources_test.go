package mcp

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/gamify"
)

func TestParseProfileURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantSubject string
		wantErr     bool
	}{
		{
			name:        "valid URI",
			uri:         "gitquest://profile/octocat",
			wantSubject: "octocat",
		},
		{
			name:        "login with dashes",
			uri:         "gitquest://profile/mona-lisa",
			wantSubject: "mona-lisa",
		},
		{
			name:    "invalid scheme",
			uri:     "http://profile/octocat",
			wantErr: true,
		},
		{
			name:    "empty subject",
			uri:     "gitquest://profile/",
			wantErr: true,
		},
		{
			name:    "wrong path prefix",
			uri:     "gitquest://badges/octocat",
			wantErr: true,
		},
		{
			name:    "nested path",
			uri:     "gitquest://profile/octocat/extra",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := parseProfileURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
		})
	}
}

func readResource(t *testing.T, handler func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	return text
}

func TestHandleProfileResource(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	text := readResource(t, env.server.handleProfileResource, "gitquest://profile/octocat")
	assert.Equal(t, "gitquest://profile/octocat", text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var resp cache.CachedResponse[engine.Profile]
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Equal(t, "octocat", resp.Data.Subject)
	assert.Equal(t, int64(60), resp.Data.Stats.TotalXP)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "gitquest://profile/bad_login"
	_, err := env.server.handleProfileResource(context.Background(), req)
	assert.Error(t, err)
}

func TestHandleBadgeCatalogueResource(t *testing.T) {
	env := setupTestServer(t)

	text := readResource(t, env.server.handleBadgeCatalogueResource, "gitquest://badges")
	var badges []gamify.Badge
	require.NoError(t, json.Unmarshal([]byte(text.Text), &badges))
	assert.Len(t, badges, len(gamify.Catalogue()))
	assert.Equal(t, "first_commit", badges[0].ID)
}

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/github"
)

// resourcePrefix is the URI scheme for GitQuest resources.
const resourcePrefix = "gitquest://"

// parseProfileURI extracts the subject from a gitquest://profile/{subject} URI.
func parseProfileURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, resourcePrefix+"profile/") {
		return "", fmt.Errorf("invalid URI scheme: %s", uri)
	}
	subject := strings.TrimPrefix(uri, resourcePrefix+"profile/")
	if subject == "" {
		return "", fmt.Errorf("empty subject in URI: %s", uri)
	}
	if !github.ValidLogin(subject) {
		return "", fmt.Errorf("invalid GitHub login in URI: %s", uri)
	}
	return subject, nil
}

// handleProfileResource handles gitquest://profile/{subject} resources.
func (s *Server) handleProfileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	subject, err := parseProfileURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	resp, err := s.engine.Profile(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %v", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleBadgeCatalogueResource handles the gitquest://badges resource.
func (s *Server) handleBadgeCatalogueResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(gamify.Catalogue())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal badges: %v", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

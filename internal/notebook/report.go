// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ssohn/blogsmith/pkg/types"
)

// artifactEnvelope is the wire form of a studio artifact.
type artifactEnvelope struct {
	ID         string `json:"id"`
	ArtifactID string `json:"artifact_id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	State      string `json:"state"`
	CreatedAt  string `json:"created_at"`
}

func (e artifactEnvelope) normalize() (types.Artifact, error) {
	id := e.ID
	if id == "" {
		id = e.ArtifactID
	}
	if id == "" {
		return types.Artifact{}, fmt.Errorf("artifact response carries no identifier")
	}

	raw := e.Status
	if raw == "" {
		raw = e.State
	}

	a := types.Artifact{ID: id, Title: e.Title, Type: e.Type}
	switch lower := strings.ToLower(raw); {
	case lower == "ready" || lower == "completed" || lower == "done":
		a.Status = types.ArtifactReady
	case strings.Contains(lower, "fail"):
		a.Status = types.ArtifactFailed
	default:
		a.Status = types.ArtifactGenerating
	}

	if e.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
			a.CreatedAt = t
		}
	}
	return a, nil
}

// CreateReport asks the service to generate a report from the notebook's
// sources. Generation runs asynchronously; the returned artifact starts
// in the generating state and is observed via PollStudio.
func (c *Client) CreateReport(ctx context.Context, notebookID, format, language string) (types.Artifact, error) {
	if format == "" {
		format = "Blog Post"
	}
	if language == "" {
		language = "ko"
	}

	body := map[string]string{"report_format": format, "language": language}
	var env artifactEnvelope
	path := "/notebooks/" + url.PathEscape(notebookID) + "/artifacts"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &env); err != nil {
		return types.Artifact{}, err
	}
	return env.normalize()
}

// PollStudio lists the notebook's studio artifacts with their generation
// states.
func (c *Client) PollStudio(ctx context.Context, notebookID string) ([]types.Artifact, error) {
	var envs []artifactEnvelope
	path := "/notebooks/" + url.PathEscape(notebookID) + "/artifacts"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envs); err != nil {
		return nil, err
	}

	artifacts := make([]types.Artifact, 0, len(envs))
	for _, e := range envs {
		a, err := e.normalize()
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// DownloadReport fetches the artifact body as markdown. A 409/425 from
// the service, or an empty body, means generation has not finished and
// maps to ErrNotReady so callers keep polling.
func (c *Client) DownloadReport(ctx context.Context, notebookID, artifactID string) (string, error) {
	path := "/notebooks/" + url.PathEscape(notebookID) + "/artifacts/" + url.PathEscape(artifactID) + "/content"
	content, err := c.doText(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("artifact %s body empty: %w", artifactID, ErrNotReady)
	}
	return content, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ssohn/blogsmith/pkg/types"
)

// researchStartEnvelope is the wire form of a research start response.
type researchStartEnvelope struct {
	TaskID string `json:"task_id"`
	ID     string `json:"id"`
}

// researchStatusEnvelope tolerates the state/status and sources/results
// field-name drift observed in poll responses.
type researchStatusEnvelope struct {
	State   string           `json:"state"`
	Status  string           `json:"status"`
	Sources []sourceEnvelope `json:"sources"`
	Results []sourceEnvelope `json:"results"`
	Error   string           `json:"error"`
}

// normalize maps the envelope onto the canonical ResearchStatus. The
// service labels completion "completed" or "done" depending on endpoint
// version, and failure states all contain "fail" somewhere in the string.
func (e researchStatusEnvelope) normalize() types.ResearchStatus {
	raw := e.State
	if raw == "" {
		raw = e.Status
	}

	envs := e.Sources
	if len(envs) == 0 {
		envs = e.Results
	}

	status := types.ResearchStatus{Sources: normalizeSources(envs)}

	switch lower := strings.ToLower(raw); {
	case lower == "completed" || lower == "done":
		status.State = types.ResearchCompleted
	case strings.Contains(lower, "fail"):
		status.State = types.ResearchFailed
		status.Detail = raw
		if e.Error != "" {
			status.Detail = e.Error
		}
	case lower == "" && len(status.Sources) > 0:
		// Eventually-consistent responses report sources before flipping
		// the state flag. Sources mean the research is usable.
		status.State = types.ResearchCompleted
	case lower == "pending" || lower == "queued":
		status.State = types.ResearchPending
	default:
		status.State = types.ResearchRunning
	}
	return status
}

// StartResearch submits a deep research job for the query and returns the
// task handle.
func (c *Client) StartResearch(ctx context.Context, notebookID, query, mode string) (types.ResearchTask, error) {
	if strings.TrimSpace(query) == "" {
		return types.ResearchTask{}, fmt.Errorf("research query is empty")
	}
	if mode == "" {
		mode = "deep"
	}

	body := map[string]string{"query": query, "mode": mode}
	var env researchStartEnvelope
	path := "/notebooks/" + url.PathEscape(notebookID) + "/research"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &env); err != nil {
		return types.ResearchTask{}, err
	}

	taskID := env.TaskID
	if taskID == "" {
		taskID = env.ID
	}
	if taskID == "" {
		return types.ResearchTask{}, fmt.Errorf("research start response carries no task identifier")
	}
	return types.ResearchTask{NotebookID: notebookID, TaskID: taskID}, nil
}

// PollResearch fetches the current state of the notebook's research job.
func (c *Client) PollResearch(ctx context.Context, notebookID string) (types.ResearchStatus, error) {
	var env researchStatusEnvelope
	path := "/notebooks/" + url.PathEscape(notebookID) + "/research"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return types.ResearchStatus{}, err
	}
	return env.normalize(), nil
}

// ImportSources attaches research-discovered sources to the notebook so
// generation can cite them. The service needs the originating task ID to
// link provenance.
func (c *Client) ImportSources(ctx context.Context, notebookID, taskID string, sources []types.Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("no sources to import")
	}
	body := map[string]any{
		"task_id": taskID,
		"sources": sources,
	}
	path := "/notebooks/" + url.PathEscape(notebookID) + "/research/import"
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

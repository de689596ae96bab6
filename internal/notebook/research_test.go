// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssohn/blogsmith/pkg/types"
)

func TestStartResearch(t *testing.T) {
	var got map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1/research", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"task_id": "task-7"}`))
	}))

	task, err := c.StartResearch(context.Background(), "nb-1", "케이뱅크 상장 일정", "")
	require.NoError(t, err)
	assert.Equal(t, "task-7", task.TaskID)
	assert.Equal(t, "nb-1", task.NotebookID)
	// Mode defaults to deep research.
	assert.Equal(t, "deep", got["mode"])
}

func TestStartResearchEmptyQuery(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request should not reach the service")
	}))

	_, err := c.StartResearch(context.Background(), "nb-1", "   ", "deep")
	require.Error(t, err)
}

func TestStartResearchMissingTaskID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))

	_, err := c.StartResearch(context.Background(), "nb-1", "q", "deep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no task identifier")
}

func TestResearchStatusNormalization(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantState   types.ResearchState
		wantSources int
	}{
		{
			"completed with sources",
			`{"state": "completed", "sources": [{"id": "s1"}, {"id": "s2"}]}`,
			types.ResearchCompleted, 2,
		},
		{
			"done under status key",
			`{"status": "done"}`,
			types.ResearchCompleted, 0,
		},
		{
			"results instead of sources",
			`{"state": "completed", "results": [{"source_id": "s1", "link": "https://x"}]}`,
			types.ResearchCompleted, 1,
		},
		{
			"sources without state flag mean done",
			`{"sources": [{"id": "s1"}]}`,
			types.ResearchCompleted, 1,
		},
		{
			"failure variants",
			`{"state": "research_failed"}`,
			types.ResearchFailed, 0,
		},
		{
			"pending",
			`{"state": "pending"}`,
			types.ResearchPending, 0,
		},
		{
			"anything else is running",
			`{"state": "gathering_sources"}`,
			types.ResearchRunning, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			status, err := c.PollResearch(context.Background(), "nb-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, status.State)
			assert.Len(t, status.Sources, tt.wantSources)
		})
	}
}

func TestSourceEnvelopeFieldFallbacks(t *testing.T) {
	env := sourceEnvelope{SrcID: "s1", Name: "nm", Link: "https://example.com"}
	s := env.normalize()
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "nm", s.Title)
	assert.Equal(t, "https://example.com", s.URL)
}

func TestImportSources(t *testing.T) {
	var got struct {
		TaskID  string         `json:"task_id"`
		Sources []types.Source `json:"sources"`
	}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1/research/import", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))

	sources := []types.Source{{ID: "s1", URL: "https://a"}, {ID: "s2", URL: "https://b"}}
	require.NoError(t, c.ImportSources(context.Background(), "nb-1", "task-7", sources))
	assert.Equal(t, "task-7", got.TaskID)
	assert.Len(t, got.Sources, 2)
}

func TestImportSourcesEmpty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request should not reach the service")
	}))
	require.Error(t, c.ImportSources(context.Background(), "nb-1", "task-7", nil))
}

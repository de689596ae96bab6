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

func TestCreateReportDefaults(t *testing.T) {
	var got map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1/artifacts", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"artifact_id": "art-1", "status": "generating"}`))
	}))

	artifact, err := c.CreateReport(context.Background(), "nb-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "art-1", artifact.ID)
	assert.Equal(t, types.ArtifactGenerating, artifact.Status)
	assert.Equal(t, "Blog Post", got["report_format"])
	assert.Equal(t, "ko", got["language"])
}

func TestPollStudioNormalizesStates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": "a1", "status": "ready", "type": "report"},
			{"id": "a2", "state": "completed"},
			{"id": "a3", "status": "generation_failed"},
			{"id": "a4", "status": "in_progress"}
		]`))
	}))

	artifacts, err := c.PollStudio(context.Background(), "nb-1")
	require.NoError(t, err)
	require.Len(t, artifacts, 4)
	assert.Equal(t, types.ArtifactReady, artifacts[0].Status)
	assert.True(t, artifacts[0].Ready())
	assert.Equal(t, types.ArtifactReady, artifacts[1].Status)
	assert.Equal(t, types.ArtifactFailed, artifacts[2].Status)
	assert.Equal(t, types.ArtifactGenerating, artifacts[3].Status)
}

func TestDownloadReport(t *testing.T) {
	const body = "# 갤럭시 S26 울트라 완벽 가이드\n\n본문입니다."
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1/artifacts/art-1/content", r.URL.Path)
		w.Write([]byte(body))
	}))

	content, err := c.DownloadReport(context.Background(), "nb-1", "art-1")
	require.NoError(t, err)
	assert.Equal(t, body, content)
}

func TestDownloadReportNotReady(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"conflict status",
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
			},
		},
		{
			"too early status",
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooEarly)
			},
		},
		{
			"empty body",
			func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("  \n"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, tt.handler)
			_, err := c.DownloadReport(context.Background(), "nb-1", "art-1")
			require.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestDownloadReportServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.DownloadReport(context.Background(), "nb-1", "art-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotReady)
}

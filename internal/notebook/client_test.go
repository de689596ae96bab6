// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssohn/blogsmith/internal/auth"
	"github.com/ssohn/blogsmith/pkg/types"
)

func testTokens() *auth.Tokens {
	return &auth.Tokens{
		Cookies:   map[string]string{"SID": "abc", "HSID": "def"},
		CSRFToken: "csrf-1",
	}
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(testTokens(), types.ClientConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		BaseURL:    ts.URL,
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsExpiredTokens(t *testing.T) {
	tokens := testTokens()
	tokens.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := New(tokens, types.ClientConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestNewRejectsMissingCookies(t *testing.T) {
	_, err := New(&auth.Tokens{}, types.ClientConfig{})
	require.Error(t, err)
}

func TestCookieHeaderSorted(t *testing.T) {
	got := cookieHeader(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, "a=1; b=2; c=3", got)
}

func TestRequestHeaders(t *testing.T) {
	var gotCookie, gotCSRF, gotUA string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotCSRF = r.Header.Get("X-CSRF-Token")
		gotUA = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode([]notebookEnvelope{})
	}))

	_, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HSID=def; SID=abc", gotCookie)
	assert.Equal(t, "csrf-1", gotCSRF)
	assert.Equal(t, "test/0.1", gotUA)
}

// --- notebook CRUD ---

func TestCreateNotebookNormalizesAlternateID(t *testing.T) {
	// The service answers with notebook_id/name on some endpoint versions.
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notebooks", r.URL.Path)
		w.Write([]byte(`{"notebook_id": "nb-1", "name": "Galaxy S26"}`))
	}))

	nb, err := c.CreateNotebook(context.Background(), "Galaxy S26")
	require.NoError(t, err)
	assert.Equal(t, "nb-1", nb.ID)
	assert.Equal(t, "Galaxy S26", nb.Title)
}

func TestCreateNotebookMissingID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title": "no id here"}`))
	}))

	_, err := c.CreateNotebook(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identifier")
}

func TestListNotebooksAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id": "a"}, {"id": "b"}]`},
		{"wrapper object", `{"notebooks": [{"id": "a"}, {"id": "b"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			notebooks, err := c.ListNotebooks(context.Background())
			require.NoError(t, err)
			require.Len(t, notebooks, 2)
			assert.Equal(t, "a", notebooks[0].ID)
		})
	}
}

func TestGetNotebookUnwrapsArray(t *testing.T) {
	// Observed: single-notebook fetches occasionally return a one-element list.
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1", r.URL.Path)
		w.Write([]byte(`[{"id": "nb-1", "title": "t", "sources": [{"id": "s1"}, {"id": "s2"}]}]`))
	}))

	nb, err := c.GetNotebook(context.Background(), "nb-1")
	require.NoError(t, err)
	assert.Equal(t, "nb-1", nb.ID)
	assert.Equal(t, 2, nb.SourceCount)
}

func TestDeleteNotebook(t *testing.T) {
	var method, path string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteNotebook(context.Background(), "nb-9"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/notebooks/nb-9", path)
}

func TestAddURLSource(t *testing.T) {
	var got map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notebooks/nb-1/sources", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.AddURLSource(context.Background(), "nb-1", "https://www.starlink.com/residential", "Starlink Residential")
	require.NoError(t, err)
	assert.Equal(t, "https://www.starlink.com/residential", got["url"])
	assert.Equal(t, "Starlink Residential", got["title"])
}

func TestStatusErrorIncludesBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "session invalid"}`))
	}))

	_, err := c.ListNotebooks(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Body, "session invalid")
}

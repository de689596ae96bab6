// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ssohn/blogsmith/pkg/types"
)

// notebookEnvelope tolerates the field-name drift the service exhibits
// (id vs notebook_id, title vs name). normalize folds the variants into a
// canonical Notebook exactly once, at the boundary.
type notebookEnvelope struct {
	ID          string           `json:"id"`
	NotebookID  string           `json:"notebook_id"`
	Title       string           `json:"title"`
	Name        string           `json:"name"`
	SourceCount int              `json:"source_count"`
	Sources     []sourceEnvelope `json:"sources"`
	CreatedAt   string           `json:"created_at"`
}

func (e notebookEnvelope) normalize() (types.Notebook, error) {
	id := e.ID
	if id == "" {
		id = e.NotebookID
	}
	if id == "" {
		return types.Notebook{}, fmt.Errorf("notebook response carries no identifier")
	}

	title := e.Title
	if title == "" {
		title = e.Name
	}

	count := e.SourceCount
	if count == 0 {
		count = len(e.Sources)
	}

	nb := types.Notebook{ID: id, Title: title, SourceCount: count}
	if e.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
			nb.CreatedAt = t
		}
	}
	return nb, nil
}

// sourceEnvelope is the wire form of a notebook source.
type sourceEnvelope struct {
	ID    string `json:"id"`
	SrcID string `json:"source_id"`
	Title string `json:"title"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Link  string `json:"link"`
}

func (e sourceEnvelope) normalize() types.Source {
	s := types.Source{ID: e.ID, Title: e.Title, URL: e.URL}
	if s.ID == "" {
		s.ID = e.SrcID
	}
	if s.Title == "" {
		s.Title = e.Name
	}
	if s.URL == "" {
		s.URL = e.Link
	}
	return s
}

func normalizeSources(envs []sourceEnvelope) []types.Source {
	if len(envs) == 0 {
		return nil
	}
	sources := make([]types.Source, 0, len(envs))
	for _, e := range envs {
		sources = append(sources, e.normalize())
	}
	return sources
}

// ListNotebooks returns all notebooks visible to the session. The service
// has returned both a bare array and a {"notebooks": [...]} wrapper;
// both shapes are accepted.
func (c *Client) ListNotebooks(ctx context.Context) ([]types.Notebook, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/notebooks", nil, &raw); err != nil {
		return nil, err
	}

	envelopes, err := decodeNotebookList(raw)
	if err != nil {
		return nil, err
	}

	notebooks := make([]types.Notebook, 0, len(envelopes))
	for _, e := range envelopes {
		nb, err := e.normalize()
		if err != nil {
			return nil, err
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, nil
}

func decodeNotebookList(raw json.RawMessage) ([]notebookEnvelope, error) {
	var list []notebookEnvelope
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapper struct {
		Notebooks []notebookEnvelope `json:"notebooks"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding notebook list: %w", err)
	}
	return wrapper.Notebooks, nil
}

// CreateNotebook creates a notebook with the given title and returns it.
func (c *Client) CreateNotebook(ctx context.Context, title string) (types.Notebook, error) {
	body := map[string]string{"title": title}
	var env notebookEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/notebooks", body, &env); err != nil {
		return types.Notebook{}, err
	}
	return env.normalize()
}

// GetNotebook fetches one notebook by ID. The service sometimes wraps the
// record in a one-element array; the wrapper is unwrapped here.
func (c *Client) GetNotebook(ctx context.Context, notebookID string) (types.Notebook, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/notebooks/"+url.PathEscape(notebookID), nil, &raw); err != nil {
		return types.Notebook{}, err
	}

	var env notebookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		var list []notebookEnvelope
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return types.Notebook{}, fmt.Errorf("decoding notebook %s: unrecognized response shape", notebookID)
		}
		env = list[0]
	}
	return env.normalize()
}

// DeleteNotebook removes a notebook and everything in it.
func (c *Client) DeleteNotebook(ctx context.Context, notebookID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/notebooks/"+url.PathEscape(notebookID), nil, nil)
}

// AddURLSource attaches a web page to the notebook as a source. The title
// labels the source in the notebook UI; empty titles are allowed and the
// service derives one.
func (c *Client) AddURLSource(ctx context.Context, notebookID, pageURL, title string) error {
	body := map[string]string{"url": pageURL}
	if title != "" {
		body["title"] = title
	}
	return c.doJSON(ctx, http.MethodPost, "/notebooks/"+url.PathEscape(notebookID)+"/sources", body, nil)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notebook is a typed client for the remote notebook research
// service. The service owns all real behavior (research execution, source
// retrieval, generation); this package only drives its HTTP API and
// normalizes its loosely-specified responses into canonical structs at
// the boundary, so call sites never probe alternate field names.
package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ssohn/blogsmith/internal/auth"
	"github.com/ssohn/blogsmith/internal/httputil"
	"github.com/ssohn/blogsmith/pkg/types"
)

// defaultBaseURL is the production service endpoint. Declared as a
// fallback only; tests and config substitute their own.
const defaultBaseURL = "https://notebooklm.google.com/api/v1"

// ErrNotReady indicates an artifact download was attempted before
// generation finished. Callers retry after a delay rather than failing.
var ErrNotReady = errors.New("artifact not ready")

// ErrResearchFailed indicates the service reported a terminal failure
// state for a research task.
var ErrResearchFailed = errors.New("research failed")

// StatusError is an unexpected HTTP status from the service.
type StatusError struct {
	Code     int
	Endpoint string
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d from %s: %s", e.Code, e.Endpoint, e.Body)
	}
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.Endpoint)
}

// Client drives the notebook service API with cached session credentials.
type Client struct {
	http       *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	cookie     string
	csrf       string
}

// New constructs a Client bound to the given credentials. Expired
// credentials are rejected up front: every later call would 401.
func New(tokens *auth.Tokens, cfg types.ClientConfig) (*Client, error) {
	if tokens == nil || len(tokens.Cookies) == 0 {
		return nil, fmt.Errorf("no credentials provided")
	}
	if tokens.Expired() {
		return nil, fmt.Errorf("cached credentials expired at %s: log in with the web client again", tokens.ExpiresAt.Format("2006-01-02 15:04"))
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "blogsmith/0.1"
	}

	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		maxRetries: cfg.MaxRetries,
		cookie:     cookieHeader(tokens.Cookies),
		csrf:       tokens.CSRFToken,
	}, nil
}

// cookieHeader renders cookies as a single header value, sorted by name
// so requests are reproducible.
func cookieHeader(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// doJSON sends one API request and decodes the JSON response into out
// (when out is non-nil). Rate limiting is handled by the shared retry
// helper; 409 and 425 map to ErrNotReady.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusTooEarly {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotReady)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Code:     resp.StatusCode,
			Endpoint: path,
			Body:     strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// doText sends one API request and returns the raw response body as a
// string. Used for artifact content, which the service serves as markdown.
func (c *Client) doText(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cookie", c.cookie)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusTooEarly {
		return "", fmt.Errorf("GET %s: %w", path, ErrNotReady)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Endpoint: path}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", path, err)
	}
	return string(data), nil
}

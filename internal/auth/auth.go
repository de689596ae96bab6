// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth loads cached notebook service credentials from disk.
// The credentials are browser session cookies captured by a prior
// interactive login; this tool never performs the login itself.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTokensPath is the cached credentials location relative to the
// user home directory.
const DefaultTokensPath = ".blogsmith/tokens.json"

// Tokens holds the cached session credentials for the notebook service.
type Tokens struct {
	// Cookies maps cookie names to values for the service session.
	Cookies map[string]string `json:"cookies"`

	// CSRFToken is sent as a header on mutating requests, when present.
	CSRFToken string `json:"csrf_token,omitempty"`

	// ExpiresAt is the session expiry recorded at capture time, when known.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session has a recorded expiry in the past.
// A zero ExpiresAt means the expiry is unknown and the session is assumed
// live until the service says otherwise.
func (t *Tokens) Expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// LoadTokens reads cached credentials from path. An empty path resolves to
// DefaultTokensPath under the user home directory. A missing, unreadable,
// or cookie-less file is a fatal error: nothing downstream works without
// credentials.
func LoadTokens(path string) (*Tokens, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, DefaultTokensPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cached credentials at %s: log in with the web client first", path)
		}
		return nil, fmt.Errorf("reading credentials file %s: %w", path, err)
	}

	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}

	if len(tokens.Cookies) == 0 {
		return nil, fmt.Errorf("credentials file %s contains no cookies", path)
	}

	return &tokens, nil
}

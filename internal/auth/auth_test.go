// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTokens(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTokens(t *testing.T) {
	path := writeTokens(t, `{
		"cookies": {"SID": "abc123", "HSID": "def456"},
		"csrf_token": "tok-789"
	}`)

	tokens, err := LoadTokens(path)
	if err != nil {
		t.Fatalf("LoadTokens() error = %v", err)
	}
	if tokens.Cookies["SID"] != "abc123" {
		t.Errorf("SID = %q, want %q", tokens.Cookies["SID"], "abc123")
	}
	if tokens.CSRFToken != "tok-789" {
		t.Errorf("CSRFToken = %q, want %q", tokens.CSRFToken, "tok-789")
	}
}

func TestLoadTokensMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	if _, err := LoadTokens(path); err == nil {
		t.Fatal("LoadTokens() on missing file should error")
	}
}

func TestLoadTokensMalformed(t *testing.T) {
	path := writeTokens(t, `{"cookies": `)
	if _, err := LoadTokens(path); err == nil {
		t.Fatal("LoadTokens() on malformed JSON should error")
	}
}

func TestLoadTokensNoCookies(t *testing.T) {
	path := writeTokens(t, `{"cookies": {}}`)
	if _, err := LoadTokens(path); err == nil {
		t.Fatal("LoadTokens() with empty cookies should error")
	}
}

func TestTokensExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero expiry assumed live", time.Time{}, false},
		{"future expiry", time.Now().Add(time.Hour), false},
		{"past expiry", time.Now().Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &Tokens{ExpiresAt: tt.expiresAt}
			if got := tok.Expired(); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

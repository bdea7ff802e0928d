// Session persistence between CLI invocations.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// sessionRecord is one cookie persisted to the session file.
type sessionRecord struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// saveSessionFile snapshots the jar's cookies for the API base to disk so
// the next process starts logged in. Records expire with the refresh token;
// the access token rotates on first use regardless.
func saveSessionFile(path string, jar CookieJar, base *url.URL) error {
	if path == "" {
		return nil
	}

	cookies := jar.Cookies(base)
	if len(cookies) == 0 {
		return removeSessionFile(path)
	}

	expires := time.Now().Add(RefreshTokenTTL)
	records := make([]sessionRecord, 0, len(cookies))
	for _, c := range cookies {
		records = append(records, sessionRecord{Name: c.Name, Value: c.Value, Expires: expires})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// loadSessionFile restores persisted cookies into the jar. A missing file or
// an expired session leaves the jar empty.
func loadSessionFile(path string, jar CookieJar, base *url.URL) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(records))
	for _, r := range records {
		if !r.Expires.After(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: r.Name, Value: r.Value, Path: "/", Expires: r.Expires})
	}
	if len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}
	return nil
}

// removeSessionFile deletes the persisted session, tolerating its absence.
func removeSessionFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

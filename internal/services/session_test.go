package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// loginFixture wires a fake streaming API whose login endpoint issues session
// cookies, plus a config pointing the session file into a temp dir. Every
// [NewClient] built from the config simulates a separate CLI invocation.
type loginFixture struct {
	server *httptest.Server
	cfg    shared.APIConfig
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		for name, value := range map[string]string{
			CookieAccessToken:  "access-1",
			CookieRefreshToken: "refresh-1",
			CookieUsername:     "listener",
			CookieEmail:        "listener@example.com",
		} {
			http.SetCookie(w, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
		w.Write([]byte(`{"username":"listener","email":"listener@example.com"}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	f := &loginFixture{server: httptest.NewServer(mux)}
	t.Cleanup(f.server.Close)

	f.cfg = shared.APIConfig{
		BaseURL:     f.server.URL + "/api",
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	}
	return f
}

func (f *loginFixture) newClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(f.cfg, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestSessionPersistence(t *testing.T) {
	f := newLoginFixture(t)

	t.Run("login survives a new process", func(t *testing.T) {
		first := f.newClient(t)
		auth := NewAuthService(first, shared.NewLogger(io.Discard))
		if _, err := auth.Login(context.Background(), "listener", "hunter2"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if _, err := os.Stat(f.cfg.SessionPath); err != nil {
			t.Fatalf("expected a session file after login: %v", err)
		}

		second := f.newClient(t)
		if !IsLoggedIn(second.Jar, second.BaseURL) {
			t.Fatal("expected the restored jar to hold a session")
		}
		profile := ProfileFromCookies(second.Jar, second.BaseURL)
		if profile.Username != "listener" {
			t.Errorf("expected restored username %q, got %q", "listener", profile.Username)
		}
	})

	t.Run("logout drops the stored session", func(t *testing.T) {
		client := f.newClient(t)
		auth := NewAuthService(client, shared.NewLogger(io.Discard))
		if _, err := auth.Login(context.Background(), "listener", "hunter2"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if err := auth.Logout(context.Background()); err != nil {
			t.Fatalf("logout failed: %v", err)
		}

		if _, err := os.Stat(f.cfg.SessionPath); !os.IsNotExist(err) {
			t.Errorf("expected the session file to be removed, stat err: %v", err)
		}
		next := f.newClient(t)
		if IsLoggedIn(next.Jar, next.BaseURL) {
			t.Error("expected a fresh client to be logged out after logout")
		}
	})

	t.Run("expired records are not restored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		stale := `[{"name":"` + CookieUsername + `","value":"listener","expires":"` +
			time.Now().Add(-time.Hour).Format(time.RFC3339) + `"}]`
		if err := os.WriteFile(path, []byte(stale), 0o600); err != nil {
			t.Fatalf("failed to seed session file: %v", err)
		}

		cfg := f.cfg
		cfg.SessionPath = path
		client, err := NewClient(cfg, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if len(client.Jar.Cookies(client.BaseURL)) != 0 {
			t.Error("expected an expired session to leave the jar empty")
		}
	})

	t.Run("no session path is a no-op", func(t *testing.T) {
		client, err := NewClient(shared.APIConfig{BaseURL: f.server.URL + "/api"}, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if err := client.SaveSession(); err != nil {
			t.Errorf("SaveSession without a path: %v", err)
		}
		if err := client.ClearStoredSession(); err != nil {
			t.Errorf("ClearStoredSession without a path: %v", err)
		}
	})
}

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// apiFixture wires a fake streaming API whose data endpoint rejects stale
// access tokens and whose refresh endpoint rotates them.
type apiFixture struct {
	server       *httptest.Server
	client       *Client
	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
	refreshDelay time.Duration
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if f.failRefresh.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: CookieAccessToken, Value: "fresh", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieAccessToken)
		if err != nil || cookie.Value != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	client, err := NewClient(shared.APIConfig{BaseURL: f.server.URL + "/api"}, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	f.client = client
	return f
}

// seedStaleToken puts an expired-looking access token in the jar.
func (f *apiFixture) seedStaleToken() {
	f.client.Jar.SetCookies(f.client.BaseURL, []*http.Cookie{
		{Name: CookieAccessToken, Value: "stale", Path: "/"},
		{Name: CookieUsername, Value: "listener", Path: "/"},
		{Name: CookieEmail, Value: "listener@example.com", Path: "/"},
	})
}

func (f *apiFixture) getData(t *testing.T) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.client.Endpoint("data"), nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestRefreshTransportRetries(t *testing.T) {
	f := newAPIFixture(t)
	f.seedStaleToken()

	resp := f.getData(t)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected retried request to succeed, got status %d", resp.StatusCode)
	}
	if got := f.refreshCalls.Load(); got != 1 {
		t.Errorf("expected 1 refresh call, got %d", got)
	}
}

func TestRefreshTransportSingleFlight(t *testing.T) {
	f := newAPIFixture(t)
	f.seedStaleToken()
	f.refreshDelay = 100 * time.Millisecond

	const callers = 5
	var wg sync.WaitGroup
	statuses := make([]int, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.client.Endpoint("data"), nil)
			if err != nil {
				t.Errorf("failed to create request: %v", err)
				return
			}
			resp, err := f.client.Do(req)
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, status := range statuses {
		if status != http.StatusOK {
			t.Errorf("caller %d got status %d, want 200", i, status)
		}
	}
	if got := f.refreshCalls.Load(); got != 1 {
		t.Errorf("expected concurrent 401s to collapse into 1 refresh, got %d", got)
	}
}

func TestRefreshTransportFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.seedStaleToken()
	f.failRefresh.Store(true)

	var expiredCalls atomic.Int32
	f.client.OnSessionExpired(func() { expiredCalls.Add(1) })

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.client.Endpoint("data"), nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	_, doErr := f.client.Do(req)
	if doErr == nil {
		t.Fatal("expected error when refresh fails")
	}
	if !errors.Is(doErr, shared.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", doErr)
	}

	t.Run("clears session cookies", func(t *testing.T) {
		if IsLoggedIn(f.client.Jar, f.client.BaseURL) {
			t.Error("expected session cookies to be cleared")
		}
	})

	t.Run("fires expiry callback once", func(t *testing.T) {
		req2, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, f.client.Endpoint("data"), nil)
		f.client.Do(req2)

		if got := expiredCalls.Load(); got != 1 {
			t.Errorf("expected 1 expiry callback, got %d", got)
		}
	})
}

func TestRefreshTransportOptOut(t *testing.T) {
	f := newAPIFixture(t)
	f.seedStaleToken()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.client.Endpoint("data"), nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set(NoRefreshHeader, "1")

	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 to pass through, got %d", resp.StatusCode)
	}
	if got := f.refreshCalls.Load(); got != 0 {
		t.Errorf("expected no refresh calls, got %d", got)
	}
}

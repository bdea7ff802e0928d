package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func newExchangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","token_type":"Bearer","id_token":"provider-id-token"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newIdentityHandler(t *testing.T) *IdentityHandler {
	t.Helper()
	exchange := newExchangeServer(t)
	config := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/callback",
		Endpoint:     oauth2.Endpoint{TokenURL: exchange.URL},
	}
	return NewIdentityHandler(config, "expected-state")
}

func TestIdentityHandlerCallback(t *testing.T) {
	handler := newIdentityHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=good-code", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	result := <-handler.Result()
	if err := result.Error(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IDToken != "provider-id-token" {
		t.Errorf("unexpected id token: %s", result.IDToken)
	}

	t.Run("second callback rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=good-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay rejected, got %d", rec.Code)
		}
	})
}

func TestIdentityHandlerInvalidState(t *testing.T) {
	handler := newIdentityHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=good-code", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	result := <-handler.Result()
	if err := result.Error(); err == nil {
		t.Error("expected error result")
	}
}

func TestIdentityHandlerProviderError(t *testing.T) {
	handler := newIdentityHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&error=access_denied&error_description=denied", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	result := <-handler.Result()
	if err := result.Error(); err == nil {
		t.Error("expected error result")
	}
}

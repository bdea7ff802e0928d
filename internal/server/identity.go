package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// IdentityResult contains the outcome of a federated identity authorization.
type IdentityResult struct {
	IDToken string
	err     error
}

func (r *IdentityResult) Error() error {
	return r.err
}

// IdentityHandler handles the authorization code callback from the identity
// provider. Implements the [Handler] interface for registration with a
// [Router].
type IdentityHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan IdentityResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewIdentityHandler creates an identity callback handler. The state token
// must be cryptographically random for CSRF protection.
func NewIdentityHandler(config *oauth2.Config, state string) *IdentityHandler {
	return &IdentityHandler{
		config:     config,
		state:      state,
		resultChan: make(chan IdentityResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *IdentityHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the identity callback request.
//
// Validates the state parameter, exchanges the authorization code for tokens,
// and sends the provider's id_token through the result channel. Only the
// first callback is processed.
func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(IdentityResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(IdentityResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.Send(IdentityResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		h.Send(IdentityResult{err: fmt.Errorf("provider response missing id_token")})
		http.Error(w, "Missing identity token", http.StatusInternalServerError)
		return
	}

	h.Send(IdentityResult{IDToken: idToken})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Sign-in Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c3aed; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Sign-in Complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the identity result through the channel (only once).
func (h *IdentityHandler) Send(result IdentityResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *IdentityHandler) Result() <-chan IdentityResult {
	return h.resultChan
}

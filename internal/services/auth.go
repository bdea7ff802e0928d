// Authentication service for the streaming API session endpoints.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// AuthService implements [Authenticator] against the streaming API.
type AuthService struct {
	client *Client
	logger *log.Logger
}

// NewAuthService creates an [AuthService] on the shared client.
func NewAuthService(client *Client, logger *log.Logger) *AuthService {
	return &AuthService{client: client, logger: logger}
}

// doRequest performs a JSON request against an auth endpoint. Auth calls
// never trigger the automatic refresh: a 401 here is a real answer.
func (a *AuthService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.client.Endpoint("auth", endpoint), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(NoRefreshHeader, "1")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: auth %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a session. The server answers with the
// token pair and profile cookies; the shared jar keeps them for every
// subsequent call.
func (a *AuthService) Login(ctx context.Context, username, password string) (*User, error) {
	payload := map[string]string{"username": username, "password": password}

	var user User
	if err := a.doRequest(ctx, http.MethodPost, "login", payload, &user); err != nil {
		return nil, err
	}

	a.client.transport.ResetExpiry()
	a.persistSession()
	a.logger.Debug("logged in", "username", user.Username)
	return &user, nil
}

// persistSession writes the fresh cookies to the session file. Persistence
// failures downgrade to a warning so the in-process session still works.
func (a *AuthService) persistSession() {
	if err := a.client.SaveSession(); err != nil {
		a.logger.Warn("could not persist session", "error", err)
	}
}

// Me returns the user behind the current session cookies.
func (a *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := a.doRequest(ctx, http.MethodGet, "me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh rotates the token pair using the refresh token cookie. Exposed for
// the background scheduler; request-path refreshes go through the transport.
func (a *AuthService) Refresh(ctx context.Context) error {
	if err := a.doRequest(ctx, http.MethodPost, "refresh", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	a.persistSession()
	return nil
}

// Logout revokes the session server-side and clears the local cookies. Local
// state is cleared even when the server call fails.
func (a *AuthService) Logout(ctx context.Context) error {
	err := a.doRequest(ctx, http.MethodPost, "logout", nil, nil)
	ClearSessionCookies(a.client.Jar, a.client.BaseURL)
	if rmErr := a.client.ClearStoredSession(); rmErr != nil {
		a.logger.Warn("could not drop persisted session", "error", rmErr)
	}
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Register creates a new account. The server logs the account in on success,
// so the session cookies arrive with the response.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (*User, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}

	var user User
	if err := a.doRequest(ctx, http.MethodPost, "register", payload, &user); err != nil {
		return nil, err
	}

	a.client.transport.ResetExpiry()
	a.persistSession()
	return &user, nil
}

// RequestOTP asks the server to mail a one-time code for password recovery.
func (a *AuthService) RequestOTP(ctx context.Context, email string) error {
	return a.doRequest(ctx, http.MethodPost, "forgot-password", map[string]string{"email": email}, nil)
}

// VerifyOTP checks the mailed code and returns the reset token on success.
func (a *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	payload := map[string]string{"email": email, "otp": code}

	var result struct {
		ResetToken string `json:"resetToken"`
	}
	if err := a.doRequest(ctx, http.MethodPost, "verify-otp", payload, &result); err != nil {
		return "", err
	}
	return result.ResetToken, nil
}

// ResetPassword sets a new password using a reset token from [AuthService.VerifyOTP].
func (a *AuthService) ResetPassword(ctx context.Context, resetToken, password string) error {
	payload := map[string]string{"resetToken": resetToken, "password": password}
	return a.doRequest(ctx, http.MethodPost, "reset-password", payload, nil)
}

// ChangePassword rotates the password of the logged-in user.
func (a *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	payload := map[string]string{"currentPassword": current, "newPassword": next}
	return a.doRequest(ctx, http.MethodPost, "change-password", payload, nil)
}

// VerifyIdentityToken exchanges a federated identity provider token for a
// session, used by the callback server after the browser flow completes.
func (a *AuthService) VerifyIdentityToken(ctx context.Context, idToken string) (*User, error) {
	payload := map[string]string{"idToken": idToken}

	var user User
	if err := a.doRequest(ctx, http.MethodPost, "identity", payload, &user); err != nil {
		return nil, err
	}

	a.client.transport.ResetExpiry()
	a.persistSession()
	return &user, nil
}

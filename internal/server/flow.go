package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// identityScopes are the OpenID Connect scopes the flow requests.
var identityScopes = []string{"openid", "email", "profile"}

// RunIdentityFlow performs the browser-based identity sign-in: it starts a
// loopback server on the configured redirect address, opens the provider's
// consent page, and waits for the callback. Returns the provider's id_token
// for exchange against the streaming API.
func RunIdentityFlow(ctx context.Context, cfg shared.IdentityConfig, logger *log.Logger) (string, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return "", fmt.Errorf("%w: identity client credentials not configured", shared.ErrMissingConfig)
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect uri: %v", shared.ErrInvalidConfig, err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       identityScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	state := shared.GenerateID()
	handler := NewIdentityHandler(oauthConfig, state)

	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(handler)

	srv := &http.Server{Addr: redirect.Host, Handler: router}
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := oauthConfig.AuthCodeURL(state)
	logger.Info("opening browser for sign-in", "url", authURL)
	if err := shared.OpenBrowser(authURL); err != nil {
		logger.Warn("could not open browser, visit the URL manually", "err", err)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return result.IDToken, nil
	case err := <-errChan:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: sign-in not completed", shared.ErrTimeout)
	}
}

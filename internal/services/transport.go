package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// NoRefreshHeader opts a request out of the automatic 401 refresh-and-retry.
// Set it on calls where a 401 is an answer, not an accident (login, refresh,
// the logged-out Me probe).
const NoRefreshHeader = "X-No-Refresh"

// retriedHeader marks a request that already went through one refresh cycle
// so a second 401 surfaces instead of looping.
const retriedHeader = "X-Retried"

// Client is the shared HTTP client for all API services. It owns the cookie
// jar holding the session and installs [refreshTransport] so any service call
// that hits an expired access token transparently refreshes and retries.
type Client struct {
	BaseURL *url.URL
	Jar     CookieJar

	http        *http.Client
	transport   *refreshTransport
	sessionPath string
	logger      *log.Logger
}

// NewClient builds a [Client] for the API described by cfg.
func NewClient(cfg shared.APIConfig, logger *log.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	// The jar only lives as long as this process; a persisted session from a
	// previous run is restored into it so every invocation does not need a
	// fresh login.
	if err := loadSessionFile(cfg.SessionPath, jar, base); err != nil && logger != nil {
		logger.Warn("could not restore session", "error", err)
	}

	transport := &refreshTransport{
		base:        http.DefaultTransport,
		baseURL:     base,
		jar:         jar,
		refreshURL:  base.JoinPath("auth", "refresh").String(),
		sessionPath: cfg.SessionPath,
		logger:      logger,
	}
	// The refresh call itself goes through a plain client sharing the jar,
	// with the opt-out header set so it can never recurse.
	transport.refreshClient = &http.Client{
		Jar:       jar,
		Transport: transport.base,
		Timeout:   cfg.Timeout(),
	}

	return &Client{
		BaseURL:     base,
		Jar:         jar,
		transport:   transport,
		sessionPath: cfg.SessionPath,
		logger:      logger,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   cfg.Timeout(),
		},
	}, nil
}

// SaveSession persists the current session cookies to the configured session
// file. A client without a session path is a no-op.
func (c *Client) SaveSession() error {
	return saveSessionFile(c.sessionPath, c.Jar, c.BaseURL)
}

// ClearStoredSession removes the persisted session file.
func (c *Client) ClearStoredSession() error {
	return removeSessionFile(c.sessionPath)
}

// Do executes the request through the refreshing client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// Endpoint resolves path segments against the API base URL.
func (c *Client) Endpoint(segments ...string) string {
	return c.BaseURL.JoinPath(segments...).String()
}

// OnSessionExpired registers the callback invoked once per session when a
// token refresh fails and the local session is cleared.
func (c *Client) OnSessionExpired(fn func()) {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	c.transport.onExpired = fn
}

// refreshTransport retries 401 responses after refreshing the token pair.
// Concurrent 401s collapse into one refresh call; every waiter is released
// in arrival order once the refresh settles.
type refreshTransport struct {
	base          http.RoundTripper
	baseURL       *url.URL
	jar           CookieJar
	refreshURL    string
	refreshClient *http.Client
	sessionPath   string
	logger        *log.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []chan error
	onExpired  func()
	expired    bool
}

// RoundTrip implements [http.RoundTripper].
func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if req.Header.Get(NoRefreshHeader) != "" || req.Header.Get(retriedHeader) != "" || isRefreshPath(req.URL.Path) {
		return resp, nil
	}
	if !t.retryable(req) {
		return resp, nil
	}

	resp.Body.Close()

	if err := t.awaitRefresh(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	retry, err := cloneForRetry(req)
	if err != nil {
		return nil, err
	}
	// RoundTrippers bypass the client's jar, so the rotated cookies have to
	// be attached by hand.
	retry.Header.Del("Cookie")
	for _, c := range t.jar.Cookies(retry.URL) {
		retry.AddCookie(c)
	}

	return t.base.RoundTrip(retry)
}

// retryable reports whether the request body can be replayed.
func (t *refreshTransport) retryable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// awaitRefresh performs the single-flight refresh. The first caller runs the
// actual HTTP call; everyone else parks on a channel and receives the shared
// outcome.
func (t *refreshTransport) awaitRefresh(req *http.Request) error {
	t.mu.Lock()
	if t.refreshing {
		ch := make(chan error, 1)
		t.waiters = append(t.waiters, ch)
		t.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-req.Context().Done():
			return req.Context().Err()
		}
	}
	t.refreshing = true
	t.mu.Unlock()

	err := t.doRefresh(req)

	t.mu.Lock()
	waiters := t.waiters
	t.waiters = nil
	t.refreshing = false
	t.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
	return err
}

// doRefresh calls the refresh endpoint. On failure the local session is
// cleared and the expiry callback fires once.
func (t *refreshTransport) doRefresh(req *http.Request) error {
	refreshReq, err := http.NewRequestWithContext(req.Context(), http.MethodPost, t.refreshURL, nil)
	if err != nil {
		return err
	}
	refreshReq.Header.Set(NoRefreshHeader, "1")

	resp, err := t.refreshClient.Do(refreshReq)
	if err != nil {
		t.expire()
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.expire()
		return fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	if err := saveSessionFile(t.sessionPath, t.jar, t.baseURL); err != nil && t.logger != nil {
		t.logger.Warn("could not persist rotated session", "error", err)
	}
	if t.logger != nil {
		t.logger.Debug("refreshed token pair", "trigger", req.URL.Path)
	}
	return nil
}

// expire clears the session cookies and fires the expiry callback, at most
// once per session.
func (t *refreshTransport) expire() {
	ClearSessionCookies(t.jar, t.baseURL)
	if err := removeSessionFile(t.sessionPath); err != nil && t.logger != nil {
		t.logger.Warn("could not drop persisted session", "error", err)
	}

	t.mu.Lock()
	fn := t.onExpired
	fired := t.expired
	t.expired = true
	t.mu.Unlock()

	if fn != nil && !fired {
		fn()
	}
}

// ResetExpiry re-arms the session expiry callback after a fresh login.
func (t *refreshTransport) ResetExpiry() {
	t.mu.Lock()
	t.expired = false
	t.mu.Unlock()
}

// cloneForRetry duplicates the request with the retried marker set and the
// body rewound.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	retry.Header.Set(retriedHeader, "1")

	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, fmt.Errorf("cannot retry request with unreplayable body: %s %s", req.Method, req.URL.Path)
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}

	return retry, nil
}

// isRefreshPath reports whether the path targets the refresh endpoint.
func isRefreshPath(path string) bool {
	return strings.HasSuffix(path, "/auth/refresh")
}

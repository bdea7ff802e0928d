// Package session holds the client's view of who is logged in.
//
// [Store] is the single source of truth for session state. Interested parts
// of the app subscribe to it instead of polling; the store notifies every
// subscriber whenever login state changes. [Scheduler] keeps the token pair
// fresh in the background while a session is active.
package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/services"
)

// Snapshot is an immutable view of session state handed to subscribers.
type Snapshot struct {
	User     *services.User
	LoggedIn bool
}

// Store tracks the current session and notifies subscribers on change.
type Store struct {
	auth   services.Authenticator
	logger *log.Logger

	mu          sync.RWMutex
	user        *services.User
	loggedIn    bool
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates a logged-out [Store] backed by the given authenticator.
func NewStore(auth services.Authenticator, logger *log.Logger) *Store {
	return &Store{
		auth:        auth,
		logger:      logger,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, LoggedIn: s.loggedIn}
}

// LoggedIn reports whether a session is active.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Subscribe registers fn to run on every session change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// set replaces the session state and notifies subscribers outside the lock.
func (s *Store) set(user *services.User, loggedIn bool) {
	s.mu.Lock()
	s.user = user
	s.loggedIn = loggedIn
	snapshot := Snapshot{User: user, LoggedIn: loggedIn}
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Login authenticates and records the resulting session.
func (s *Store) Login(ctx context.Context, username, password string) (*services.User, error) {
	user, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.set(user, true)
	return user, nil
}

// FetchCurrentUser probes the server for the user behind the current
// cookies. Any failure, network or auth, resolves to a logged-out state
// rather than an error: on startup there is often simply no session yet.
func (s *Store) FetchCurrentUser(ctx context.Context) {
	user, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Debug("no active session", "err", err)
		s.set(nil, false)
		return
	}
	s.set(user, true)
}

// RefreshUser re-fetches the profile for an active session, keeping the
// current state when the fetch fails.
func (s *Store) RefreshUser(ctx context.Context) error {
	user, err := s.auth.Me(ctx)
	if err != nil {
		return err
	}
	s.set(user, true)
	return nil
}

// Logout ends the session. Calling it while logged out is a no-op; the
// store always ends logged out even when the server call fails.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	active := s.loggedIn
	s.mu.RUnlock()
	if !active {
		return nil
	}

	err := s.auth.Logout(ctx)
	s.set(nil, false)
	return err
}

// MarkExpired drops to a logged-out state without a server call, used when
// the transport reports an unrecoverable token refresh failure.
func (s *Store) MarkExpired() {
	s.logger.Warn("session expired")
	s.set(nil, false)
}

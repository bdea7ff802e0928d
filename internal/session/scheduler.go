package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

// DefaultRefreshInterval rotates the pair well inside the access token's
// lifetime so a tick landing late never races expiry.
const DefaultRefreshInterval = services.AccessTokenTTL - 5*time.Minute

// Scheduler refreshes the token pair on a fixed interval while a session is
// active. A transient refresh failure is logged and retried next tick; a
// definitive one marks the session expired and stops the loop.
type Scheduler struct {
	auth     services.Authenticator
	store    *Store
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a stopped [Scheduler]. A non-positive interval falls
// back to [DefaultRefreshInterval].
func NewScheduler(auth services.Authenticator, store *Store, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{auth: auth, store: store, interval: interval, logger: logger}
}

// Start launches the refresh loop. Calling Start on a running scheduler is a
// no-op, so login and startup paths can both call it safely.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
}

// Stop halts the refresh loop and waits for it to exit. Safe to call on a
// stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the refresh loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.store.LoggedIn() {
				continue
			}
			if err := s.auth.Refresh(ctx); err != nil {
				if errors.Is(err, shared.ErrRefreshFailed) {
					s.store.MarkExpired()
					s.markStopped()
					return
				}
				s.logger.Warn("scheduled refresh failed", "err", err)
			}
		}
	}
}

// markStopped records that the loop exited on its own.
func (s *Scheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		s.cancel()
	}
}

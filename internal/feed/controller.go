// Package feed implements the vertical track feed: an append-only queue of
// catalog tracks with gesture navigation, pagination prefetch, and playback
// handoff.
//
// Navigation is guarded by a transition lock: once a move is accepted, the
// controller ignores further gestures until the lock timer releases, so a
// fast wheel or repeated swipes move exactly one track per transition.
// Auto-advance has a single source: the engine's completion event when an
// engine is attached, a duration timer otherwise. Gestures and auto-advance
// never race because the latter bypasses the gesture lock.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/player"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

// Snapshot is an immutable view of the feed for rendering.
type Snapshot struct {
	Queue       []services.Track
	Index       int
	Locked      bool
	Fetching    bool
	HasNextPage bool
}

// Controller owns the feed queue and the playhead within it.
type Controller struct {
	catalog services.Catalog
	engine  *player.Engine
	logger  *log.Logger

	transition     time.Duration
	prefetchWindow int

	mu            sync.Mutex
	queue         []services.Track
	index         int
	page          int
	hasNext       bool
	fetching      bool
	locked        bool
	lockTimer     *time.Timer
	fallbackTimer *time.Timer
	onChange      func()
}

// NewController creates a feed over the catalog. The engine may be nil, in
// which case auto-advance falls back to a track-duration timer and playback
// calls are skipped (used by the export commands, which only need paging).
func NewController(catalog services.Catalog, engine *player.Engine, cfg shared.FeedConfig, logger *log.Logger) *Controller {
	transition := time.Duration(cfg.TransitionMillis) * time.Millisecond
	if transition <= 0 {
		transition = 600 * time.Millisecond
	}
	window := cfg.PrefetchWindow
	if window <= 0 {
		window = 5
	}

	c := &Controller{
		catalog:        catalog,
		engine:         engine,
		logger:         logger,
		transition:     transition,
		prefetchWindow: window,
	}
	if engine != nil {
		engine.OnComplete(c.handleTrackComplete)
	}
	return c
}

// OnChange registers the callback fired after every queue or index change.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current feed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := make([]services.Track, len(c.queue))
	copy(queue, c.queue)
	return Snapshot{Queue: queue, Index: c.index, Locked: c.locked, Fetching: c.fetching, HasNextPage: c.hasNext}
}

// Current returns the track under the playhead.
func (c *Controller) Current() (services.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return services.Track{}, false
	}
	return c.queue[c.index], true
}

// LoadFirstPage fetches page one, resets the queue, and starts playback of
// the first track.
func (c *Controller) LoadFirstPage(ctx context.Context) error {
	page, err := c.catalog.Songs(ctx, 1)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		return shared.ErrEmptyFeed
	}

	c.mu.Lock()
	c.queue = append([]services.Track(nil), page.Items...)
	c.index = 0
	c.page = page.Page
	c.hasNext = page.HasNextPage
	c.mu.Unlock()

	c.playCurrent()
	c.notify()
	return nil
}

// LoadNextPageIfNeeded fetches the next page when the playhead is within the
// prefetch window of the queue tail. New tracks append; existing entries and
// the playhead never move. At most one fetch is in flight.
func (c *Controller) LoadNextPageIfNeeded(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasNext || c.fetching || len(c.queue)-1-c.index >= c.prefetchWindow {
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	next := c.page + 1
	c.mu.Unlock()

	page, err := c.catalog.Songs(ctx, next)

	c.mu.Lock()
	c.fetching = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("feed prefetch failed", "page", next, "err", err)
		return err
	}
	c.queue = append(c.queue, page.Items...)
	c.page = page.Page
	c.hasNext = page.HasNextPage
	c.mu.Unlock()

	c.logger.Debug("appended feed page", "page", page.Page, "queue", len(c.queue))
	c.notify()
	return nil
}

// Advance moves to the next track, wrapping at the tail. Returns false when
// the transition lock swallowed the gesture.
func (c *Controller) Advance(ctx context.Context) bool {
	return c.navigate(ctx, 1)
}

// Retreat moves to the previous track, wrapping at the head. Returns false
// when the transition lock swallowed the gesture.
func (c *Controller) Retreat(ctx context.Context) bool {
	return c.navigate(ctx, -1)
}

// Jump moves the playhead straight to index i, subject to the same lock as
// the step gestures.
func (c *Controller) Jump(ctx context.Context, i int) bool {
	c.mu.Lock()
	if c.locked || len(c.queue) == 0 || i < 0 || i >= len(c.queue) || i == c.index {
		c.mu.Unlock()
		return false
	}
	c.index = i
	c.lockLocked()
	c.mu.Unlock()

	c.afterMove(ctx)
	return true
}

func (c *Controller) navigate(ctx context.Context, step int) bool {
	c.mu.Lock()
	if c.locked || len(c.queue) == 0 {
		c.mu.Unlock()
		return false
	}
	c.index = (c.index + step + len(c.queue)) % len(c.queue)
	c.lockLocked()
	c.mu.Unlock()

	c.afterMove(ctx)
	return true
}

// lockLocked arms the transition lock. Caller holds c.mu.
func (c *Controller) lockLocked() {
	c.locked = true
	if c.lockTimer != nil {
		c.lockTimer.Stop()
	}
	c.lockTimer = time.AfterFunc(c.transition, func() {
		c.mu.Lock()
		c.locked = false
		c.mu.Unlock()
	})
}

// afterMove starts playback of the new current track and prefetches in the
// background.
func (c *Controller) afterMove(ctx context.Context) {
	c.playCurrent()
	c.notify()
	go c.LoadNextPageIfNeeded(context.WithoutCancel(ctx))
}

// playCurrent hands the current track to the engine, or arms the fallback
// auto-advance timer when no engine is attached.
func (c *Controller) playCurrent() {
	track, ok := c.Current()
	if !ok {
		return
	}

	if c.engine == nil {
		c.armFallbackTimer(track)
		return
	}
	if err := c.engine.PlayTrack(track); err != nil {
		c.logger.Warn("playback failed", "track", track.Title, "err", err)
	}
}

// armFallbackTimer schedules auto-advance off the track duration. Only used
// without an engine; with one, the completion event is the single source.
func (c *Controller) armFallbackTimer(track services.Track) {
	if track.Duration <= 0 {
		return
	}
	c.mu.Lock()
	if c.fallbackTimer != nil {
		c.fallbackTimer.Stop()
	}
	c.fallbackTimer = time.AfterFunc(time.Duration(track.Duration)*time.Second, func() {
		c.handleTrackComplete(player.RepeatOff)
	})
	c.mu.Unlock()
}

// handleTrackComplete is the engine's completion hook. It bypasses the
// gesture lock: a finished track always yields to its successor.
func (c *Controller) handleTrackComplete(mode player.RepeatMode) {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	atTail := c.index == len(c.queue)-1
	if atTail && mode != player.RepeatAll {
		c.mu.Unlock()
		c.logger.Debug("feed finished")
		c.notify()
		return
	}
	c.index = (c.index + 1) % len(c.queue)
	c.mu.Unlock()

	c.playCurrent()
	c.notify()
	go c.LoadNextPageIfNeeded(context.Background())
}

// Close stops the transition and fallback timers. The controller must not
// be navigated after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lockTimer != nil {
		c.lockTimer.Stop()
		c.lockTimer = nil
	}
	if c.fallbackTimer != nil {
		c.fallbackTimer.Stop()
		c.fallbackTimer = nil
	}
	c.locked = false
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

package player

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

// RepeatMode controls what happens when a track plays to completion.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // advance, stop at the end of the queue
	RepeatOne                   // restart the current track
	RepeatAll                   // advance, wrap at the end of the queue
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// Cycle returns the next mode in the off -> all -> one -> off rotation.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// State is a snapshot of the engine for rendering.
type State struct {
	Track         *services.Track
	Playing       bool
	Muted         bool
	MutedFallback bool
	Repeat        RepeatMode
	Volume        float64
	Position      time.Duration
	Duration      time.Duration
}

// Engine drives the single playback [Element]. It owns the repeat mode and
// the end-of-track decision: repeat-one restarts in place, every other mode
// hands off to the registered completion callback exactly once per track.
type Engine struct {
	element Element
	logger  *log.Logger

	mu            sync.Mutex
	track         *services.Track
	playing       bool
	repeat        RepeatMode
	volume        float64
	mutedFallback bool
	onComplete    func(RepeatMode)
}

// NewEngine creates an [Engine] around the given element.
func NewEngine(element Element, logger *log.Logger) *Engine {
	e := &Engine{element: element, logger: logger, volume: 1.0}
	element.OnEnded(e.handleEnded)
	return e
}

// OnComplete registers the callback fired when a track finishes and the
// repeat mode calls for leaving it. The callback receives the mode so the
// queue owner can decide between advancing, wrapping, and stopping.
func (e *Engine) OnComplete(fn func(RepeatMode)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// PlayTrack loads the track into the element and starts playback. When
// unmuted playback is refused, the engine falls back to playing muted so the
// feed keeps moving; [Engine.Unmute] lifts the fallback.
func (e *Engine) PlayTrack(track services.Track) error {
	if err := e.element.Load(track); err != nil {
		return fmt.Errorf("failed to load %q: %w", track.Title, err)
	}

	e.mu.Lock()
	e.track = &track
	e.mu.Unlock()

	return e.start()
}

// start begins playback on the already-loaded element, applying the muted
// fallback on autoplay refusal.
func (e *Engine) start() error {
	err := e.element.Play()
	if err == nil {
		e.setPlaying(true)
		return nil
	}
	if !errors.Is(err, shared.ErrAutoplayBlocked) || e.element.Muted() {
		e.setPlaying(false)
		return err
	}

	e.logger.Debug("unmuted playback refused, retrying muted")
	e.element.SetMuted(true)
	if retryErr := e.element.Play(); retryErr != nil {
		e.element.SetMuted(false)
		e.setPlaying(false)
		return fmt.Errorf("muted fallback failed: %w", retryErr)
	}

	e.mu.Lock()
	e.playing = true
	e.mutedFallback = true
	e.mu.Unlock()
	return nil
}

// Resume continues playback of the loaded track.
func (e *Engine) Resume() error {
	return e.start()
}

// Pause halts playback keeping position.
func (e *Engine) Pause() {
	e.element.Pause()
	e.setPlaying(false)
}

// Toggle flips between playing and paused.
func (e *Engine) Toggle() error {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()

	if playing {
		e.Pause()
		return nil
	}
	return e.Resume()
}

// Seek moves the playhead within the loaded track.
func (e *Engine) Seek(pos time.Duration) error {
	return e.element.Seek(pos)
}

// SetVolume clamps v into [0, 1] and applies it.
func (e *Engine) SetVolume(v float64) {
	v = math.Max(0, math.Min(1, v))
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
	e.element.SetVolume(v)
}

// AdjustVolume nudges the volume by delta, clamped to [0, 1].
func (e *Engine) AdjustVolume(delta float64) {
	e.mu.Lock()
	v := e.volume
	e.mu.Unlock()
	e.SetVolume(v + delta)
}

// Unmute lifts muting, clearing the autoplay fallback flag.
func (e *Engine) Unmute() {
	e.element.SetMuted(false)
	e.mu.Lock()
	e.mutedFallback = false
	e.mu.Unlock()
}

// Mute silences output.
func (e *Engine) Mute() {
	e.element.SetMuted(true)
}

// SetRepeat sets the repeat mode.
func (e *Engine) SetRepeat(mode RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
}

// CycleRepeat rotates the repeat mode and returns the new value.
func (e *Engine) CycleRepeat() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = e.repeat.Cycle()
	return e.repeat
}

// Repeat returns the current repeat mode.
func (e *Engine) Repeat() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

// State returns a rendering snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Track:         e.track,
		Playing:       e.playing,
		Muted:         e.element.Muted(),
		MutedFallback: e.mutedFallback,
		Repeat:        e.repeat,
		Volume:        e.volume,
		Position:      e.element.Position(),
		Duration:      e.element.Duration(),
	}
}

// Close releases the underlying element.
func (e *Engine) Close() error {
	return e.element.Close()
}

// handleEnded is the element's completion hook. Repeat-one restarts the
// track in place; otherwise the completion callback takes over.
func (e *Engine) handleEnded() {
	e.mu.Lock()
	repeat := e.repeat
	fn := e.onComplete
	e.mu.Unlock()

	if repeat == RepeatOne {
		if err := e.element.Seek(0); err != nil {
			e.logger.Warn("failed to restart track", "err", err)
			e.setPlaying(false)
			return
		}
		if err := e.start(); err != nil {
			e.logger.Warn("failed to restart track", "err", err)
		}
		return
	}

	e.setPlaying(false)
	if fn != nil {
		fn(repeat)
	}
}

func (e *Engine) setPlaying(playing bool) {
	e.mu.Lock()
	e.playing = playing
	e.mu.Unlock()
}

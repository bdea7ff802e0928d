// Package player implements audio playback for the track feed.
//
// The design centers on a single [Element], the playback surface the rest of
// the app drives. Exactly one element exists per [Engine]; loading a new
// track reuses it rather than constructing another, so two tracks can never
// sound at once. [beepElement] is the production element backed by the
// speaker; tests substitute their own.
package player

import (
	"time"

	"github.com/desertthunder/tunefeed/internal/services"
)

// Element is a single playback surface. Implementations must be safe for
// concurrent use.
type Element interface {
	// Load replaces the element's media with the given track, stopping any
	// current playback. Position resets to zero.
	Load(track services.Track) error

	// Play starts or resumes playback. Returns [shared.ErrAutoplayBlocked]
	// when the environment refuses unmuted playback; callers may mute and
	// retry.
	Play() error

	// Pause halts playback keeping the current position.
	Pause()

	// Seek moves the playhead.
	Seek(pos time.Duration) error

	// Position returns the current playhead.
	Position() time.Duration

	// Duration returns the loaded track's length, zero when nothing is
	// loaded.
	Duration() time.Duration

	// SetVolume sets the linear volume in [0, 1].
	SetVolume(v float64)

	// SetMuted silences output without touching the volume setting.
	SetMuted(muted bool)

	// Muted reports whether output is muted.
	Muted() bool

	// OnEnded registers the single callback fired when the loaded track
	// plays to completion. Registering replaces any previous callback.
	OnEnded(fn func())

	// ReadSamples copies the most recent output samples into dst, returning
	// how many frames were written. Feeds the spectrum analyzer.
	ReadSamples(dst [][2]float64) int

	// Close releases the element. The element cannot be reused afterwards.
	Close() error
}

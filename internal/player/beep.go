// Speaker-backed [Element] implementation using the beep audio library.
package player

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

const (
	// outputSampleRate is the fixed speaker rate; decoded streams are
	// resampled to it.
	outputSampleRate = beep.SampleRate(44100)

	speakerBufferSize = 250 * time.Millisecond

	// tapRingFrames holds roughly a quarter second of output for the
	// analyzer at 44.1kHz.
	tapRingFrames = 11025
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker initializes the audio device once for the process lifetime.
func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(outputSampleRate, outputSampleRate.N(speakerBufferSize))
	})
	return speakerErr
}

// beepElement plays catalog tracks through the system speaker. It decodes
// the track's MP3 stream over HTTP and routes it through a sample tap (for
// the analyzer), a volume stage, and a pause control.
type beepElement struct {
	client *http.Client
	logger *log.Logger

	mu       sync.Mutex
	track    services.Track
	streamer beep.StreamSeekCloser
	format   beep.Format
	tap      *sampleTap
	volume   *effects.Volume
	ctrl     *beep.Ctrl
	onEnded  func()
	level    float64
	muted    bool
	loaded   bool
	started  bool
	closed   bool

	ended chan struct{}
	quit  chan struct{}
}

// NewBeepElement creates the production [Element]. The client fetches track
// streams and may be nil for [http.DefaultClient].
func NewBeepElement(client *http.Client, logger *log.Logger) Element {
	if client == nil {
		client = http.DefaultClient
	}
	e := &beepElement{
		client: client,
		logger: logger,
		level:  1.0,
		ended:  make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	go e.drainEnded()
	return e
}

// drainEnded delivers end-of-track notifications on a goroutine of our own.
// The speaker invokes streamer callbacks with its package lock held, so the
// ended handler must never run inline there: every continuation (seek,
// clear, replay) re-acquires that lock.
func (e *beepElement) drainEnded() {
	for {
		select {
		case <-e.quit:
			return
		case <-e.ended:
			e.fireEnded()
		}
	}
}

// signalEnded is the speaker-side completion hook. It only signals and
// returns; see [beepElement.drainEnded].
func (e *beepElement) signalEnded() {
	select {
	case e.ended <- struct{}{}:
	default:
	}
}

func (e *beepElement) Load(track services.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("%w: element closed", shared.ErrInvalidInput)
	}

	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
		e.loaded = false
	}

	resp, err := e.client.Get(track.StreamURL)
	if err != nil {
		return fmt.Errorf("failed to fetch stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("%w: stream returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("%w: %v", shared.ErrDecodeFailed, err)
	}

	e.track = track
	e.streamer = streamer
	e.format = format
	e.tap = newSampleTap(streamer, tapRingFrames)
	e.loaded = true
	e.started = false

	var source beep.Streamer = e.tap
	if format.SampleRate != outputSampleRate {
		source = beep.Resample(4, format.SampleRate, outputSampleRate, source)
	}

	e.volume = &effects.Volume{Streamer: source, Base: 2, Volume: levelToGain(e.level), Silent: e.muted || e.level == 0}
	e.ctrl = &beep.Ctrl{Streamer: e.volume, Paused: true}

	e.logger.Debug("loaded track", "title", track.Title, "sampleRate", int(format.SampleRate))
	return nil
}

func (e *beepElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return fmt.Errorf("%w: no track loaded", shared.ErrInvalidInput)
	}

	if err := initSpeaker(); err != nil {
		// No audio device behaves like an autoplay refusal: playback can
		// only proceed silently.
		if !e.muted {
			return fmt.Errorf("%w: %v", shared.ErrAutoplayBlocked, err)
		}
		return fmt.Errorf("%w: no audio device for muted playback", shared.ErrAutoplayBlocked)
	}

	if e.ctrl.Paused {
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
	}

	if !e.playing() {
		speaker.Play(beep.Seq(e.ctrl, beep.Callback(e.signalEnded)))
		e.started = true
	}
	return nil
}

// playing reports whether the current sequence was handed to the speaker.
// Caller holds e.mu.
func (e *beepElement) playing() bool {
	return e.started
}

func (e *beepElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

func (e *beepElement) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return fmt.Errorf("%w: no track loaded", shared.ErrInvalidInput)
	}

	n := e.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if limit := e.streamer.Len(); n > limit {
		n = limit
	}

	speaker.Lock()
	err := e.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

func (e *beepElement) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return 0
	}
	speaker.Lock()
	n := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(n)
}

func (e *beepElement) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len())
}

func (e *beepElement) SetVolume(v float64) {
	v = math.Max(0, math.Min(1, v))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = v
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Volume = levelToGain(v)
	e.volume.Silent = e.muted || v == 0
	speaker.Unlock()
}

func (e *beepElement) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Silent = muted || e.level == 0
	speaker.Unlock()
}

func (e *beepElement) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *beepElement) OnEnded(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = fn
}

func (e *beepElement) fireEnded() {
	e.mu.Lock()
	fn := e.onEnded
	e.started = false
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *beepElement) ReadSamples(dst [][2]float64) int {
	e.mu.Lock()
	tap := e.tap
	e.mu.Unlock()
	if tap == nil {
		return 0
	}
	return tap.Read(dst)
}

func (e *beepElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.quit)

	speaker.Clear()
	if e.streamer != nil {
		if err := e.streamer.Close(); err != nil {
			return fmt.Errorf("failed to close streamer: %w", err)
		}
		e.streamer = nil
	}
	e.loaded = false
	return nil
}

// levelToGain converts a linear [0,1] level to the volume effect's log scale.
func levelToGain(v float64) float64 {
	if v <= 0 {
		return -10
	}
	return math.Log2(v)
}

// sampleTap passes samples through while keeping the most recent frames in a
// ring buffer for the analyzer.
type sampleTap struct {
	streamer beep.Streamer

	mu     sync.Mutex
	ring   [][2]float64
	pos    int
	filled int
}

func newSampleTap(streamer beep.Streamer, frames int) *sampleTap {
	return &sampleTap{streamer: streamer, ring: make([][2]float64, frames)}
}

func (t *sampleTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.streamer.Stream(samples)

	t.mu.Lock()
	for i := 0; i < n; i++ {
		t.ring[t.pos] = samples[i]
		t.pos = (t.pos + 1) % len(t.ring)
		if t.filled < len(t.ring) {
			t.filled++
		}
	}
	t.mu.Unlock()

	return n, ok
}

func (t *sampleTap) Err() error {
	return t.streamer.Err()
}

// Read copies the most recent frames into dst in chronological order.
func (t *sampleTap) Read(dst [][2]float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(dst)
	if n > t.filled {
		n = t.filled
	}
	start := (t.pos - n + len(t.ring)) % len(t.ring)
	for i := 0; i < n; i++ {
		dst[i] = t.ring[(start+i)%len(t.ring)]
	}
	return n
}

// Frequency spectrum analysis for the playback visualizer.
package player

import (
	"math"
	"math/cmplx"
	"sync"
	"time"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// DefaultBars is the visualizer resolution.
	DefaultBars = 64

	// fftFrames is the analysis window size; must be a power of two.
	fftFrames = 1024

	// analyzeInterval paces the analysis loop at roughly 20 frames per
	// second, plenty for a terminal visualizer.
	analyzeInterval = 50 * time.Millisecond

	// smoothing blends each new spectrum into the previous one so bars
	// fall gradually instead of flickering.
	smoothing = 0.65
)

var (
	analyzersMu sync.Mutex
	analyzers   = make(map[Element]*Analyzer)
)

// AnalyzerFor returns the analyzer attached to the element, creating it on
// first call. An element gets exactly one analyzer no matter how many views
// render its spectrum, so the sample tap is never drained twice.
func AnalyzerFor(element Element, bars int) *Analyzer {
	analyzersMu.Lock()
	defer analyzersMu.Unlock()

	if a, ok := analyzers[element]; ok {
		return a
	}
	a := NewAnalyzer(element, bars)
	analyzers[element] = a
	return a
}

// DetachAnalyzer stops and forgets the element's analyzer, used when the
// element is closed.
func DetachAnalyzer(element Element) {
	analyzersMu.Lock()
	a, ok := analyzers[element]
	delete(analyzers, element)
	analyzersMu.Unlock()

	if ok {
		a.Stop()
	}
}

// Analyzer computes a bar spectrum from an element's recent output samples.
type Analyzer struct {
	element Element
	bars    int

	mu       sync.Mutex
	spectrum []float64
	gate     func() bool
	running  bool
	cancel   chan struct{}
	done     chan struct{}
}

// NewAnalyzer creates a stopped analyzer. A non-positive bar count falls
// back to [DefaultBars]. Most callers want [AnalyzerFor] instead.
func NewAnalyzer(element Element, bars int) *Analyzer {
	if bars <= 0 {
		bars = DefaultBars
	}
	return &Analyzer{element: element, bars: bars, spectrum: make([]float64, bars)}
}

// Bars returns the spectrum resolution.
func (a *Analyzer) Bars() int { return a.bars }

// SetGate installs a predicate consulted on every tick. While it reports
// false the loop skips the FFT entirely and lets the bars fall to zero, so
// a paused track never shows a frozen spectrum from stale tap contents.
func (a *Analyzer) SetGate(gate func() bool) {
	a.mu.Lock()
	a.gate = gate
	a.mu.Unlock()
}

func (a *Analyzer) gated() bool {
	a.mu.Lock()
	gate := a.gate
	a.mu.Unlock()
	return gate != nil && !gate()
}

// Spectrum returns a copy of the latest bar values, each in [0, 1].
func (a *Analyzer) Spectrum() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, len(a.spectrum))
	copy(out, a.spectrum)
	return out
}

// Start launches the analysis loop. Idempotent.
func (a *Analyzer) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.cancel = make(chan struct{})
	a.done = make(chan struct{})
	go a.loop(a.cancel, a.done)
}

// Stop halts the loop and zeroes the spectrum. Safe on a stopped analyzer.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	close(cancel)
	<-done

	a.mu.Lock()
	for i := range a.spectrum {
		a.spectrum[i] = 0
	}
	a.mu.Unlock()
}

func (a *Analyzer) loop(cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(analyzeInterval)
	defer ticker.Stop()

	frames := make([][2]float64, fftFrames)
	mono := make([]float64, fftFrames)

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if a.gated() {
				a.decay()
				continue
			}
			n := a.element.ReadSamples(frames)
			if n == 0 {
				a.decay()
				continue
			}
			for i := 0; i < n; i++ {
				mono[i] = (frames[i][0] + frames[i][1]) / 2
			}
			for i := n; i < fftFrames; i++ {
				mono[i] = 0
			}
			a.update(computeBars(mono, a.bars))
		}
	}
}

// decay slides all bars toward silence while no samples arrive, snapping
// values below the floor to exactly zero so a quiet spectrum settles.
func (a *Analyzer) decay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.spectrum {
		a.spectrum[i] *= smoothing
		if a.spectrum[i] < 0.01 {
			a.spectrum[i] = 0
		}
	}
}

// update blends the fresh bars into the published spectrum.
func (a *Analyzer) update(bars []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.spectrum {
		a.spectrum[i] = smoothing*a.spectrum[i] + (1-smoothing)*bars[i]
	}
}

// computeBars runs a windowed FFT over mono samples and folds the magnitude
// bins into bars on a logarithmic frequency axis, normalized to [0, 1].
func computeBars(mono []float64, bars int) []float64 {
	windowed := make([]float64, len(mono))
	for i, s := range mono {
		// Hann window
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(mono)-1)))
		windowed[i] = s * w
	}

	spectrum := fft.FFTReal(windowed)
	bins := len(spectrum) / 2

	out := make([]float64, bars)
	for i := 0; i < bars; i++ {
		// Logarithmic bin ranges keep the low end from dominating.
		lo := binForBar(i, bars, bins)
		hi := binForBar(i+1, bars, bins)
		if hi <= lo {
			hi = lo + 1
		}

		var sum float64
		for b := lo; b < hi && b < bins; b++ {
			sum += cmplx.Abs(spectrum[b+1])
		}
		avg := sum / float64(hi-lo)

		// Scale into [0, 1]; the divisor was picked against full-scale
		// sine input.
		v := avg / (float64(len(mono)) / 16)
		out[i] = math.Min(1, v)
	}
	return out
}

// binForBar maps a bar index onto the FFT bin axis logarithmically.
func binForBar(bar, bars, bins int) int {
	frac := float64(bar) / float64(bars)
	return int(math.Pow(float64(bins), frac)) - 1
}

package player

import (
	"math"
	"sync/atomic"
	"testing"
	"time"
)

// sineElement feeds a pure tone into the analyzer.
func sineElement(freqBin int) *fakeElement {
	element := newFakeElement()
	element.samples = make([][2]float64, fftFrames)
	for i := range element.samples {
		v := math.Sin(2 * math.Pi * float64(freqBin) * float64(i) / fftFrames)
		element.samples[i] = [2]float64{v, v}
	}
	return element
}

func TestAnalyzerSpectrum(t *testing.T) {
	analyzer := NewAnalyzer(sineElement(8), DefaultBars)
	analyzer.Start()
	defer analyzer.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		spectrum := analyzer.Spectrum()
		var peak float64
		for _, v := range spectrum {
			if v < 0 || v > 1 {
				t.Fatalf("bar out of range: %f", v)
			}
			peak = math.Max(peak, v)
		}
		if peak > 0.05 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected a tone to register in the spectrum")
}

func TestAnalyzerGate(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)

	analyzer := NewAnalyzer(sineElement(8), DefaultBars)
	analyzer.SetGate(playing.Load)
	analyzer.Start()
	defer analyzer.Stop()

	peak := func() float64 {
		var p float64
		for _, v := range analyzer.Spectrum() {
			p = math.Max(p, v)
		}
		return p
	}
	waitFor := func(t *testing.T, cond func() bool, msg string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatal(msg)
	}

	waitFor(t, func() bool { return peak() > 0.05 }, "expected a spectrum while the gate is open")

	// The tap still holds the tone's samples, so a closed gate must win
	// over stale ring contents.
	playing.Store(false)
	waitFor(t, func() bool { return peak() == 0 }, "expected the spectrum to fall to zero while gated")

	playing.Store(true)
	waitFor(t, func() bool { return peak() > 0.05 }, "expected the spectrum to recover once ungated")
}

func TestAnalyzerBarCount(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		analyzer := NewAnalyzer(newFakeElement(), 0)
		if analyzer.Bars() != DefaultBars {
			t.Errorf("expected %d bars, got %d", DefaultBars, analyzer.Bars())
		}
		if len(analyzer.Spectrum()) != DefaultBars {
			t.Errorf("expected %d values, got %d", DefaultBars, len(analyzer.Spectrum()))
		}
	})

	t.Run("custom", func(t *testing.T) {
		analyzer := NewAnalyzer(newFakeElement(), 80)
		if analyzer.Bars() != 80 {
			t.Errorf("expected 80 bars, got %d", analyzer.Bars())
		}
	})
}

func TestAnalyzerStartStop(t *testing.T) {
	analyzer := NewAnalyzer(newFakeElement(), DefaultBars)

	analyzer.Stop() // never started

	analyzer.Start()
	analyzer.Start() // idempotent
	analyzer.Stop()
	analyzer.Stop()

	for _, v := range analyzer.Spectrum() {
		if v != 0 {
			t.Errorf("expected zeroed spectrum after stop, got %f", v)
		}
	}
}

func TestAnalyzerRegistry(t *testing.T) {
	element := newFakeElement()
	defer DetachAnalyzer(element)

	first := AnalyzerFor(element, DefaultBars)
	second := AnalyzerFor(element, 32)

	if first != second {
		t.Error("expected one analyzer per element")
	}

	t.Run("detach forgets", func(t *testing.T) {
		DetachAnalyzer(element)
		third := AnalyzerFor(element, DefaultBars)
		if third == first {
			t.Error("expected a fresh analyzer after detach")
		}
	})
}

func TestComputeBarsSilence(t *testing.T) {
	mono := make([]float64, fftFrames)
	for _, v := range computeBars(mono, DefaultBars) {
		if v != 0 {
			t.Errorf("expected zero bars for silence, got %f", v)
		}
	}
}

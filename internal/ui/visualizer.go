package ui

import (
	"strings"

	"github.com/desertthunder/tunefeed/internal/player"
)

// visualizerGlyphs are eighth-block characters ordered by height.
var visualizerGlyphs = []rune("▁▂▃▄▅▆▇█")

// renderVisualizer draws one terminal row of frequency bars. Without an
// analyzer, or while stopped, every bar sits on the floor glyph.
func (m Model) renderVisualizer() string {
	bars := player.DefaultBars
	var spectrum []float64
	if m.analyzer != nil {
		bars = m.analyzer.Bars()
		spectrum = m.analyzer.Spectrum()
	}
	var b strings.Builder
	for i := 0; i < bars; i++ {
		v := 0.0
		if i < len(spectrum) {
			v = spectrum[i]
		}
		b.WriteRune(barGlyph(v))
	}
	return styles.bars.Render(b.String())
}

func barGlyph(v float64) rune {
	if v <= 0 {
		return visualizerGlyphs[0]
	}
	if v >= 1 {
		return visualizerGlyphs[len(visualizerGlyphs)-1]
	}
	return visualizerGlyphs[int(v*float64(len(visualizerGlyphs)))]
}

// Package orbit segments the hammer-height time series into per-turn
// high and low points used to animate fade-in markers during
// playback.
package orbit

import (
	"math"

	"github.com/giering/throwsage-viewer/internal/mhr"
)

// Kind distinguishes orbit high points from low points.
type Kind string

const (
	High Kind = "high"
	Low  Kind = "low"
)

// Extremum is one located orbit extreme. Span is the frame width of
// the segment it was found in, which sizes the fade-in animation.
type Extremum struct {
	Frame    int      `json:"frame"`
	Position mhr.Vec3 `json:"position"`
	Kind     Kind     `json:"kind"`
	Span     int      `json:"span"`
}

// Series provides hammer data to the detector. Height returns NaN for
// untracked frames, which are excluded from the search.
type Series interface {
	Height(frame int) float64
	Position(frame int) mhr.Vec3
	Frames() int
}

// DetectExtremes locates orbit extremes between turn boundaries. N
// boundaries bound N-1 segments, each contributing the frame of
// maximum hammer height; those highs partition the span from a
// half-turn-width before the first boundary up to release into N
// gaps, each contributing the frame of minimum height. Untracked
// hammer frames never appear in the result.
func DetectExtremes(boundaries []int, s Series, release int) []Extremum {
	if len(boundaries) < 2 {
		return nil
	}

	var out []Extremum
	highs := make([]int, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		lo, hi := boundaries[i], boundaries[i+1]
		f, ok := argExtreme(s, lo, hi, true)
		if !ok {
			continue
		}
		highs = append(highs, f)
		out = append(out, Extremum{
			Frame:    f,
			Position: s.Position(f),
			Kind:     High,
			Span:     hi - lo,
		})
	}
	if len(highs) == 0 {
		return out
	}

	// The first gap opens a half turn width before the first
	// boundary; the last one closes at release.
	halfTurn := (boundaries[1] - boundaries[0]) / 2
	start := boundaries[0] - halfTurn
	if start < 0 {
		start = 0
	}
	gapStarts := append([]int{start}, highs...)
	gapEnds := append(append([]int(nil), highs...), release)

	for i := range gapStarts {
		lo, hi := gapStarts[i], gapEnds[i]
		if hi > s.Frames()-1 {
			hi = s.Frames() - 1
		}
		f, ok := argExtreme(s, lo, hi, false)
		if !ok {
			continue
		}
		out = append(out, Extremum{
			Frame:    f,
			Position: s.Position(f),
			Kind:     Low,
			Span:     hi - lo,
		})
	}
	return out
}

// argExtreme finds the frame of maximum (or minimum) height in
// [lo, hi], skipping untracked frames. ok is false when no frame in
// the interval has valid tracking.
func argExtreme(s Series, lo, hi int, max bool) (int, bool) {
	if lo < 0 {
		lo = 0
	}
	if hi > s.Frames()-1 {
		hi = s.Frames() - 1
	}
	best, found := 0, false
	var bestH float64
	for f := lo; f <= hi; f++ {
		h := s.Height(f)
		if math.IsNaN(h) {
			continue
		}
		if !found || (max && h > bestH) || (!max && h < bestH) {
			best, bestH, found = f, h, true
		}
	}
	return best, found
}

// FadeOpacity computes the marker opacity at the playback cursor: the
// marker appears at full opacity on its own frame and fades to 0.5
// over 75% of its segment span. Before its frame the marker is not
// visible at all and the returned opacity is 0.
func FadeOpacity(e Extremum, cursor int) float64 {
	if cursor < e.Frame {
		return 0
	}
	fade := 0.75 * float64(e.Span)
	if fade <= 0 {
		return 0.5
	}
	p := float64(cursor-e.Frame) / fade
	if p > 1 {
		p = 1
	}
	return 1.0 - 0.5*p
}

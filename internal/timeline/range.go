// Package timeline derives the active scrub/playback window from the
// annotation record and dataset metadata.
package timeline

import (
	"fmt"
	"math"

	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/playback"
	"github.com/giering/throwsage-viewer/internal/tags"
)

// Preset selects which part of the throw the timeline covers.
type Preset string

const (
	// RangeAll covers frame 0 through the end of the throw.
	RangeAll Preset = "all"
	// RangeWindup covers frame 0 through T0.
	RangeWindup Preset = "windup"
	// RangeThrow covers T0 through the end of the throw.
	RangeThrow Preset = "throw"
)

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case RangeAll, RangeWindup, RangeThrow:
		return Preset(s), nil
	}
	return "", fmt.Errorf("unknown timeline preset %q", s)
}

// Compute derives the playback range for the preset. The throw end
// frame prefers, in order: the pipeline-supplied highpoint frame,
// release plus one second of frames capped at the last valid hammer
// frame, and finally the last frame with valid hammer tracking.
func Compute(preset Preset, rec *tags.Record, ds *dataset.Dataset) (playback.Range, error) {
	last := ds.Frames() - 1
	switch preset {
	case RangeWindup:
		if rec.T0() == tags.Unset {
			return playback.Range{}, fmt.Errorf("wind-up range requires T0")
		}
		return playback.Range{Min: 0, Max: rec.T0()}, nil
	case RangeThrow:
		if rec.T0() == tags.Unset {
			return playback.Range{}, fmt.Errorf("throw range requires T0")
		}
		return playback.Range{Min: rec.T0(), Max: endFrame(rec, ds, last)}, nil
	case RangeAll:
		return playback.Range{Min: 0, Max: endFrame(rec, ds, last)}, nil
	}
	return playback.Range{}, fmt.Errorf("unknown timeline preset %q", preset)
}

func endFrame(rec *tags.Record, ds *dataset.Dataset, last int) int {
	if hp := ds.Meta.HighpointFrame; hp != nil && *hp >= 0 && *hp <= last {
		return *hp
	}
	lastValid := ds.LastValidHammerFrame()
	if lastValid < 0 {
		lastValid = last
	}
	if rec.Release() != tags.Unset {
		end := rec.Release() + int(math.Round(ds.Meta.FPS))
		if end > lastValid {
			end = lastValid
		}
		return end
	}
	return lastValid
}

// Package config loads optional JSON tuning for the viewer engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/ellipse"
	"github.com/giering/throwsage-viewer/internal/playback"
)

// Tuning holds the adjustable engine parameters. Fields are pointers
// so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for the rest.
type Tuning struct {
	// Ellipse fit bounds.
	FitMinRadiusPx *float64 `json:"fit_min_radius_px,omitempty"`
	CanvasWidthPx  *float64 `json:"canvas_width_px,omitempty"`

	// Playback.
	LoopPolicy  *string  `json:"loop_policy,omitempty"` // "zero", "range_min", "stop"
	FPSOverride *float64 `json:"fps_override,omitempty"`
}

// Load reads a tuning file. A partial config is safe; omitted fields
// keep their defaults.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Validate checks the loaded values.
func (t *Tuning) Validate() error {
	if t.FitMinRadiusPx != nil && *t.FitMinRadiusPx <= 0 {
		return fmt.Errorf("fit_min_radius_px must be positive, got %f", *t.FitMinRadiusPx)
	}
	if t.CanvasWidthPx != nil && *t.CanvasWidthPx <= 0 {
		return fmt.Errorf("canvas_width_px must be positive, got %f", *t.CanvasWidthPx)
	}
	if t.FPSOverride != nil && *t.FPSOverride <= 0 {
		return fmt.Errorf("fps_override must be positive, got %f", *t.FPSOverride)
	}
	if t.LoopPolicy != nil {
		switch *t.LoopPolicy {
		case "zero", "range_min", "stop":
		default:
			return fmt.Errorf("unknown loop_policy %q", *t.LoopPolicy)
		}
	}
	return nil
}

// GetFitMinRadiusPx returns the minimum plausible fit radius.
func (t *Tuning) GetFitMinRadiusPx() float64 {
	if t == nil || t.FitMinRadiusPx == nil {
		return ellipse.DefaultMinRadiusPx
	}
	return *t.FitMinRadiusPx
}

// GetCanvasWidthPx returns the canvas width bound for fits.
func (t *Tuning) GetCanvasWidthPx() float64 {
	if t == nil || t.CanvasWidthPx == nil {
		return 1920
	}
	return *t.CanvasWidthPx
}

// GetLoopPolicy returns the configured end-of-range policy. The
// historical default for the viewer tool is looping back to the range
// minimum.
func (t *Tuning) GetLoopPolicy() playback.LoopPolicy {
	if t == nil || t.LoopPolicy == nil {
		return playback.LoopToRangeMin
	}
	switch *t.LoopPolicy {
	case "zero":
		return playback.LoopToZero
	case "stop":
		return playback.StopAtEnd
	default:
		return playback.LoopToRangeMin
	}
}

// GetFPS returns the override when set, else the metadata fps.
func (t *Tuning) GetFPS(metadataFPS float64) float64 {
	if t == nil || t.FPSOverride == nil {
		return metadataFPS
	}
	return *t.FPSOverride
}

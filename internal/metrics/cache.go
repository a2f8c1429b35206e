// Package metrics builds the full-timeline derived-metric series once
// per session and serves O(1) per-frame lookups during playback.
package metrics

import (
	"fmt"

	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/mhr"
	"github.com/giering/throwsage-viewer/internal/monitoring"
)

// Source records where a series came from. Precomputed pipeline
// output and live computation differ in accuracy, so the origin is
// logged once at build time.
type Source int

const (
	// SourcePrecomputed means the series was loaded verbatim from the
	// pipeline output.
	SourcePrecomputed Source = iota
	// SourceComputed means the series was derived from the keypoint
	// set at load time.
	SourceComputed
)

func (s Source) String() string {
	if s == SourcePrecomputed {
		return "precomputed"
	}
	return "computed"
}

// Series is an immutable full-timeline scalar array indexed 1:1 with
// frames.
type Series struct {
	Name   string
	Source Source
	values []float64
}

// ValueAt returns the metric value at frame.
func (s *Series) ValueAt(frame int) float64 {
	return s.values[frame]
}

// Values returns the backing array. Callers must not mutate it.
func (s *Series) Values() []float64 { return s.values }

// Len returns the series length in frames.
func (s *Series) Len() int { return len(s.values) }

// Metric names served by the cache.
const (
	LegAlignment = "leg_alignment"
	Separation   = "separation"
	BackLean     = "back_lean"
	HammerHeight = "hammer_height"
)

// definition is the declarative per-metric policy: a preferred
// precomputed source and an optional per-frame fallback computation.
type definition struct {
	name        string
	precomputed []float32
	compute     func(frame int) float64 // nil: external-only
}

// Cache holds the built series for one session. It is written exactly
// once at load and read-only thereafter.
type Cache struct {
	series map[string]*Series
}

// Build constructs every metric series for the dataset. For each
// metric the precomputed pipeline array is preferred when its length
// matches the frame count; otherwise the fallback computation runs
// over all frames. Metrics with neither source are absent, which is a
// valid state callers must check.
func Build(ds *dataset.Dataset) *Cache {
	kp := ds.Keypoints
	t := ds.Frames()

	defs := []definition{
		{
			// Sourced externally only; live derivation needs the foot
			// contact model the viewer does not have.
			name:        LegAlignment,
			precomputed: ds.LegAlignment,
		},
		{
			name:        Separation,
			precomputed: ds.Separation,
			compute: func(f int) float64 {
				return mhr.HipShoulderSeparationDeg(kp, f)
			},
		},
		{
			name:        BackLean,
			precomputed: ds.BackLean,
			compute: func(f int) float64 {
				return mhr.BackTiltDeg(kp, f, ds.HammerPosition(f), ds.HammerValid(f))
			},
		},
		{
			name: HammerHeight,
			compute: func(f int) float64 {
				return ds.HammerHeight(f)
			},
		},
	}

	c := &Cache{series: make(map[string]*Series, len(defs))}
	for _, d := range defs {
		s := build(d, t)
		if s == nil {
			monitoring.Logf("metric %s: no precomputed source and no fallback, series absent", d.name)
			continue
		}
		monitoring.Logf("metric %s: source=%s (%d frames)", d.name, s.Source, s.Len())
		c.series[d.name] = s
	}
	return c
}

func build(d definition, frames int) *Series {
	if len(d.precomputed) == frames {
		values := make([]float64, frames)
		for i, v := range d.precomputed {
			values[i] = float64(v)
		}
		return &Series{Name: d.name, Source: SourcePrecomputed, values: values}
	}
	if d.precomputed != nil {
		monitoring.Logf("metric %s: precomputed length %d != %d frames, falling back",
			d.name, len(d.precomputed), frames)
	}
	if d.compute == nil {
		return nil
	}
	values := make([]float64, frames)
	for f := 0; f < frames; f++ {
		values[f] = d.compute(f)
	}
	return &Series{Name: d.name, Source: SourceComputed, values: values}
}

// Get returns the named series, or false when absent.
func (c *Cache) Get(name string) (*Series, bool) {
	s, ok := c.series[name]
	return s, ok
}

// ValueAt returns the metric value at frame, erroring on absent
// series rather than panicking in interactive flows.
func (c *Cache) ValueAt(name string, frame int) (float64, error) {
	s, ok := c.series[name]
	if !ok {
		return 0, fmt.Errorf("metric %s absent", name)
	}
	if frame < 0 || frame >= s.Len() {
		return 0, fmt.Errorf("frame %d out of range [0,%d)", frame, s.Len())
	}
	return s.ValueAt(frame), nil
}

// Names returns the names of every built series.
func (c *Cache) Names() []string {
	names := make([]string, 0, len(c.series))
	for n := range c.series {
		names = append(names, n)
	}
	return names
}

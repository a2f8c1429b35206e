package dataset

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/mhr"
	"github.com/giering/throwsage-viewer/internal/monitoring"
)

// SupportState is the per-frame foot-contact state of the thrower.
// The engine only reads it; the pipeline writes it.
type SupportState int8

const (
	SupportUndefined SupportState = 0
	SingleSupport    SupportState = 1
	DoubleSupport    SupportState = 2
)

// Dataset holds one loaded session of pipeline output. Required
// series are always non-nil after a successful Load; optional series
// may be nil and consumers must treat nil as a valid, checked state.
type Dataset struct {
	Meta *Metadata

	Vertices  []float32 // frames * vertexCount * 3
	Faces     []int32   // faceCount * 3, shared across frames
	Keypoints *mhr.Keypoints
	hammer    []float32 // frames * 3, raw storage coordinates

	// Optional series (nil when absent).
	Support       []int8    // frames
	Fill          []int8    // frames, provenance codes
	CircleCenters []float32 // frames * 3
	LegAlignment  []float32 // frames, degrees
	Separation    []float32 // frames, degrees
	BackLean      []float32 // frames, degrees
	Paint         []float32 // vertexCount * 3, static per-vertex colors
}

// Load reads every series declared by the metadata in dir. Missing or
// malformed required series abort the load; a failed optional series
// is logged and left absent.
func Load(dir string, meta *Metadata) (*Dataset, error) {
	ds := &Dataset{Meta: meta}
	t := meta.FrameCount

	var err error
	if ds.Vertices, err = ReadFloat32Array(filepath.Join(dir, meta.VerticesFile), t*meta.VertexCount*3); err != nil {
		return nil, fmt.Errorf("vertices: %w", err)
	}
	if ds.Faces, err = ReadInt32Array(filepath.Join(dir, meta.FacesFile), meta.FaceCount*3); err != nil {
		return nil, fmt.Errorf("faces: %w", err)
	}
	kpBuf, err := ReadFloat32Array(filepath.Join(dir, meta.KeypointsFile), t*mhr.NumJoints*3)
	if err != nil {
		return nil, fmt.Errorf("keypoints: %w", err)
	}
	if ds.Keypoints, err = mhr.NewKeypoints(kpBuf, t, meta.Space()); err != nil {
		return nil, err
	}
	if ds.hammer, err = ReadFloat32Array(filepath.Join(dir, meta.HammerFile), t*3); err != nil {
		return nil, fmt.Errorf("hammer: %w", err)
	}

	loadOptF32 := func(name, file string, count int) []float32 {
		if file == "" {
			return nil
		}
		arr, err := ReadFloat32Array(filepath.Join(dir, file), count)
		if err != nil {
			monitoring.Logf("optional series %s unavailable: %v", name, err)
			return nil
		}
		return arr
	}
	loadOptI8 := func(name, file string, count int) []int8 {
		if file == "" {
			return nil
		}
		arr, err := ReadInt8Array(filepath.Join(dir, file), count)
		if err != nil {
			monitoring.Logf("optional series %s unavailable: %v", name, err)
			return nil
		}
		return arr
	}

	ds.Support = loadOptI8("support", meta.SupportFile, t)
	ds.Fill = loadOptI8("fill", meta.FillFile, t)
	ds.CircleCenters = loadOptF32("circle_centers", meta.CircleCenterFile, t*3)
	ds.LegAlignment = loadOptF32("leg_alignment", meta.LegAlignmentFile, t)
	ds.Separation = loadOptF32("separation", meta.SeparationFile, t)
	ds.BackLean = loadOptF32("back_lean", meta.BackLeanFile, t)
	ds.Paint = loadOptF32("paint", meta.PaintFile, meta.VertexCount*3)

	return ds, nil
}

// Frames returns the total frame count.
func (d *Dataset) Frames() int { return d.Meta.FrameCount }

// hammerRaw returns the stored hammer triple without transform.
func (d *Dataset) hammerRaw(frame int) mhr.Vec3 {
	off := frame * 3
	return mhr.Vec3{
		X: float64(d.hammer[off]),
		Y: float64(d.hammer[off+1]),
		Z: float64(d.hammer[off+2]),
	}
}

// HammerValid reports whether the hammer is tracked at the frame. The
// pipeline writes NaN or an exact zero vector when the implement is
// untracked, commonly after release or landing.
func (d *Dataset) HammerValid(frame int) bool {
	if frame < 0 || frame >= d.Frames() {
		return false
	}
	raw := d.hammerRaw(frame)
	return !raw.HasNaN() && !raw.IsZero()
}

// HammerPosition returns the hammer position in viewer coordinates.
// Callers must check HammerValid first; an invalid frame returns the
// zero vector.
func (d *Dataset) HammerPosition(frame int) mhr.Vec3 {
	if !d.HammerValid(frame) {
		return mhr.Vec3{}
	}
	return d.Meta.Space().Transform(d.hammerRaw(frame))
}

// HammerHeight returns the vertical hammer coordinate at the frame, or
// NaN when untracked so extrema search can skip it.
func (d *Dataset) HammerHeight(frame int) float64 {
	if !d.HammerValid(frame) {
		return math.NaN()
	}
	return d.HammerPosition(frame).Y
}

// LastValidHammerFrame returns the last frame with valid hammer
// tracking, or -1 if the implement is never tracked.
func (d *Dataset) LastValidHammerFrame() int {
	for f := d.Frames() - 1; f >= 0; f-- {
		if d.HammerValid(f) {
			return f
		}
	}
	return -1
}

// SupportAt returns the support state at the frame, SupportUndefined
// when the series is absent or the frame is out of range.
func (d *Dataset) SupportAt(frame int) SupportState {
	if d.Support == nil || frame < 0 || frame >= len(d.Support) {
		return SupportUndefined
	}
	return SupportState(d.Support[frame])
}

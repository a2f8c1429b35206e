// Package testutil provides shared test fixtures, primarily synthetic
// on-disk datasets matching the pipeline output layout.
package testutil

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/mhr"
)

// Fixture describes a synthetic dataset. Zero-valued series fields are
// filled with zeros of the required length; nil optional series are
// omitted from the metadata entirely.
type Fixture struct {
	Frames      int
	FPS         float64
	CoordSpace  string
	VertexCount int
	FaceCount   int

	Keypoints []float32 // frames * joints * 3; zeros when nil
	Hammer    []float32 // frames * 3; zeros (untracked) when nil

	Support      []int8
	LegAlignment []float32
	Separation   []float32
	BackLean     []float32

	HighpointFrame *int
	ThrowStart     *int
	ReleaseFrame   *int
	TurnBoundaries []int

	// Dir overrides the target directory; empty means a fresh temp dir.
	Dir string
}

// TrackedHammer builds a hammer series where every frame follows a
// simple vertical sine so all frames are valid and heights vary.
func TrackedHammer(frames int) []float32 {
	buf := make([]float32, frames*3)
	for f := 0; f < frames; f++ {
		buf[f*3] = 1 // keep the vector nonzero
		buf[f*3+1] = float32(math.Sin(float64(f) / 5))
		buf[f*3+2] = 0.5
	}
	return buf
}

// Write materializes the fixture in a fresh temp directory and returns
// the directory path. Missing sizes default to a minimal mesh.
func (fx *Fixture) Write(t *testing.T) string {
	t.Helper()
	dir := fx.Dir
	if dir == "" {
		dir = t.TempDir()
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}

	if fx.FPS == 0 {
		fx.FPS = 30
	}
	if fx.VertexCount == 0 {
		fx.VertexCount = 2
	}
	if fx.FaceCount == 0 {
		fx.FaceCount = 1
	}

	meta := dataset.Metadata{
		FrameCount:     fx.Frames,
		FPS:            fx.FPS,
		CoordSpace:     fx.CoordSpace,
		VertexCount:    fx.VertexCount,
		FaceCount:      fx.FaceCount,
		VerticesFile:   "vertices.bin",
		FacesFile:      "faces.bin",
		KeypointsFile:  "keypoints.bin",
		HammerFile:     "hammer.bin",
		HighpointFrame: fx.HighpointFrame,
		ThrowStart:     fx.ThrowStart,
		ReleaseFrame:   fx.ReleaseFrame,
		TurnBoundaries: fx.TurnBoundaries,
	}

	WriteFloat32File(t, filepath.Join(dir, "vertices.bin"), zeroF32(fx.Frames*fx.VertexCount*3))
	WriteInt32File(t, filepath.Join(dir, "faces.bin"), make([]int32, fx.FaceCount*3))

	kp := fx.Keypoints
	if kp == nil {
		kp = zeroF32(fx.Frames * mhr.NumJoints * 3)
	}
	WriteFloat32File(t, filepath.Join(dir, "keypoints.bin"), kp)

	hammer := fx.Hammer
	if hammer == nil {
		hammer = zeroF32(fx.Frames * 3)
	}
	WriteFloat32File(t, filepath.Join(dir, "hammer.bin"), hammer)

	if fx.Support != nil {
		meta.SupportFile = "support.bin"
		WriteInt8File(t, filepath.Join(dir, "support.bin"), fx.Support)
	}
	if fx.LegAlignment != nil {
		meta.LegAlignmentFile = "leg_alignment.bin"
		WriteFloat32File(t, filepath.Join(dir, "leg_alignment.bin"), fx.LegAlignment)
	}
	if fx.Separation != nil {
		meta.SeparationFile = "separation.bin"
		WriteFloat32File(t, filepath.Join(dir, "separation.bin"), fx.Separation)
	}
	if fx.BackLean != nil {
		meta.BackLeanFile = "back_lean.bin"
		WriteFloat32File(t, filepath.Join(dir, "back_lean.bin"), fx.BackLean)
	}

	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	return dir
}

// Load writes the fixture and loads it back through the dataset layer.
func (fx *Fixture) Load(t *testing.T) *dataset.Dataset {
	t.Helper()
	dir := fx.Write(t)
	meta, err := dataset.LoadMetadata(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("load fixture metadata: %v", err)
	}
	ds, err := dataset.Load(dir, meta)
	if err != nil {
		t.Fatalf("load fixture dataset: %v", err)
	}
	return ds
}

// WriteFloat32File writes vals as little-endian float32.
func WriteFloat32File(t *testing.T, path string, vals []float32) {
	t.Helper()
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteInt32File writes vals as little-endian int32.
func WriteInt32File(t *testing.T, path string, vals []int32) {
	t.Helper()
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteInt8File writes vals as raw bytes.
func WriteInt8File(t *testing.T, path string, vals []int8) {
	t.Helper()
	buf := make([]byte, len(vals))
	for i, v := range vals {
		buf[i] = byte(v)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Intp returns a pointer to v, for optional metadata fields.
func Intp(v int) *int { return &v }

func zeroF32(n int) []float32 { return make([]float32, n) }

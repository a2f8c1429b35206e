package mhr

import "fmt"

// CoordSpace identifies the coordinate convention of a loaded dataset.
// It is fixed for the lifetime of the dataset and determines every
// downstream transform.
type CoordSpace int

const (
	// CameraSpace stores thrower-relative positions with y and z
	// negated relative to viewer coordinates.
	CameraSpace CoordSpace = iota
	// WorldSpace stores scene-absolute positions used as-is.
	WorldSpace
)

// ParseCoordSpace maps the metadata coordinate-space tag to a
// CoordSpace value.
func ParseCoordSpace(tag string) (CoordSpace, error) {
	switch tag {
	case "camera", "":
		return CameraSpace, nil
	case "world":
		return WorldSpace, nil
	}
	return CameraSpace, fmt.Errorf("unknown coordinate space %q", tag)
}

// String returns the metadata tag for the coordinate space.
func (s CoordSpace) String() string {
	if s == WorldSpace {
		return "world"
	}
	return "camera"
}

// Transform converts a stored triple into viewer coordinates. This is
// the single coordinate-transform boundary: every geometry consumer
// goes through it, so the camera-space axis flip is defined exactly
// once.
func (s CoordSpace) Transform(v Vec3) Vec3 {
	if s == CameraSpace {
		return Vec3{X: v.X, Y: -v.Y, Z: -v.Z}
	}
	return v
}

// Keypoints wraps the flat per-frame joint buffer of a dataset.
// The buffer holds frames*NumJoints*3 float32 values; joint i at
// frame f starts at offset (f*NumJoints+i)*3.
type Keypoints struct {
	buf    []float32
	frames int
	space  CoordSpace
}

// NewKeypoints validates the buffer shape against the frame count and
// wraps it.
func NewKeypoints(buf []float32, frames int, space CoordSpace) (*Keypoints, error) {
	if want := frames * NumJoints * 3; len(buf) != want {
		return nil, fmt.Errorf("keypoint buffer has %d values, want %d (%d frames x %d joints)",
			len(buf), want, frames, NumJoints)
	}
	return &Keypoints{buf: buf, frames: frames, space: space}, nil
}

// Frames returns the number of frames in the buffer.
func (k *Keypoints) Frames() int { return k.frames }

// Space returns the coordinate space of the source data.
func (k *Keypoints) Space() CoordSpace { return k.space }

// JointPosition returns the position of joint at frame in viewer
// coordinates, applying the coordinate-space transform exactly once.
func (k *Keypoints) JointPosition(frame, joint int) Vec3 {
	off := (frame*NumJoints + joint) * 3
	raw := Vec3{
		X: float64(k.buf[off]),
		Y: float64(k.buf[off+1]),
		Z: float64(k.buf[off+2]),
	}
	return k.space.Transform(raw)
}

// midpoint of two joints at a frame.
func (k *Keypoints) midpoint(frame, a, b int) Vec3 {
	return k.JointPosition(frame, a).Add(k.JointPosition(frame, b)).Scale(0.5)
}

// HipMid returns the midpoint of the two hip joints.
func (k *Keypoints) HipMid(frame int) Vec3 {
	return k.midpoint(frame, LHip, RHip)
}

// ShoulderMid returns the midpoint of the two shoulder joints.
func (k *Keypoints) ShoulderMid(frame int) Vec3 {
	return k.midpoint(frame, LShoulder, RShoulder)
}

package mhr

import "math"

// Separation thresholds consumed by the shading layer. The asymmetry
// is intentional: 45 degrees of positive separation counts as full
// rotation, 15 degrees the other way as full reverse.
const (
	FullSeparationDeg    = 45.0
	ReverseSeparationDeg = 15.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BackTiltDeg computes the signed back-tilt angle at a frame: the
// angle in degrees between the hip-mid to shoulder-mid vector and
// vertical. The sign marks whether the torso leans toward (+) or away
// from (-) the reference direction, which is the hammer's horizontal
// direction from the hip midpoint when hammerDir is usable, and the
// nose-forward horizontal direction otherwise. The nose fallback is
// the canonical choice for frames without hammer tracking.
func BackTiltDeg(k *Keypoints, frame int, hammer Vec3, hammerValid bool) float64 {
	hipMid := k.HipMid(frame)
	torso := k.ShoulderMid(frame).Sub(hipMid)
	unit := torso.Normalize()
	if unit.IsZero() {
		return 0
	}
	mag := math.Acos(clamp(unit.Dot(Up), -1, 1)) * 180 / math.Pi

	ref := hammer.Sub(hipMid).Horizontal()
	if !hammerValid || ref.Norm() < 1e-9 {
		ref = k.JointPosition(frame, Nose).Sub(hipMid).Horizontal()
	}
	if ref.Norm() < 1e-9 {
		return mag
	}
	if torso.Horizontal().Dot(ref) < 0 {
		return -mag
	}
	return mag
}

// HipShoulderSeparationDeg computes the signed planar angle in degrees
// between the hip line (left hip to right hip) and the shoulder line,
// both projected onto the horizontal plane. Positive means the
// shoulders lead the hips in the turn direction. Degenerate hip or
// shoulder lines yield 0 rather than NaN.
func HipShoulderSeparationDeg(k *Keypoints, frame int) float64 {
	hip := k.JointPosition(frame, RHip).Sub(k.JointPosition(frame, LHip)).Horizontal()
	shoulder := k.JointPosition(frame, RShoulder).Sub(k.JointPosition(frame, LShoulder)).Horizontal()
	if hip.Norm() < 1e-9 || shoulder.Norm() < 1e-9 {
		return 0
	}
	cross := hip.X*shoulder.Z - hip.Z*shoulder.X
	dot := hip.X*shoulder.X + hip.Z*shoulder.Z
	return math.Atan2(cross, dot) * 180 / math.Pi
}

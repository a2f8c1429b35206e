// Package mhr implements the keypoint geometry engine over the MHR70
// body layout produced by the upstream pose-estimation pipeline.
package mhr

// Joint indices in the MHR70 layout. Only the joints the derived
// metrics consume are named; the remaining indices are face and hand
// refinement points the viewer passes through untouched.
const (
	Pelvis    = 0
	LHip      = 1
	RHip      = 2
	Spine     = 3
	LKnee     = 4
	RKnee     = 5
	LAnkle    = 7
	RAnkle    = 8
	LShoulder = 16
	RShoulder = 17
	Nose      = 55

	// NumJoints is the fixed per-frame joint count of the MHR70 layout.
	NumJoints = 70
)

// Package tags holds the user-authored annotation record for one
// video session: throw boundaries, support marks, ball markers and
// the calibrated throwing circle, with full undo support.
package tags

import (
	"fmt"
	"sort"

	"github.com/giering/throwsage-viewer/internal/ellipse"
)

// Unset marks an absent frame field.
const Unset = -1

// PixelPoint is a 2D pixel coordinate for ball markers.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Record is the mutable annotation state for one video. It is owned
// by a session instance and mutated only through the tag operations
// below, each of which pushes its inverse onto the undo stack.
type Record struct {
	t0      int
	release int
	turns   []int // sorted ascending
	ss      []int // sorted ascending, disjoint from ds
	ds      []int // sorted ascending, disjoint from ss
	balls   map[int]PixelPoint

	circle    *ellipse.Ellipse
	zeroAngle *float64

	dirty bool
	undo  []action
}

// NewRecord returns an empty annotation record.
func NewRecord() *Record {
	return &Record{
		t0:      Unset,
		release: Unset,
		balls:   make(map[int]PixelPoint),
	}
}

// Seed applies pipeline-provided annotations to a fresh record
// without dirtying it or entering the undo history. Turn boundaries
// equal to t0 are dropped, matching the boundary exclusivity rule.
func (r *Record) Seed(t0, release int, turns []int) {
	r.t0 = t0
	r.release = release
	r.turns = r.turns[:0]
	for _, f := range turns {
		if f != r.t0 {
			r.turns = append(r.turns, f)
		}
	}
	sort.Ints(r.turns)
}

// T0 returns the throw-start frame, or Unset.
func (r *Record) T0() int { return r.t0 }

// Release returns the release frame, or Unset.
func (r *Record) Release() int { return r.release }

// TurnBoundaries returns a copy of the sorted turn/wind boundary
// frames.
func (r *Record) TurnBoundaries() []int { return append([]int(nil), r.turns...) }

// SingleSupport returns a copy of the sorted single-support frames.
func (r *Record) SingleSupport() []int { return append([]int(nil), r.ss...) }

// DoubleSupport returns a copy of the sorted double-support frames.
func (r *Record) DoubleSupport() []int { return append([]int(nil), r.ds...) }

// BallMarker returns the marker at frame, if any.
func (r *Record) BallMarker(frame int) (PixelPoint, bool) {
	p, ok := r.balls[frame]
	return p, ok
}

// BallMarkers returns a copy of all markers keyed by frame.
func (r *Record) BallMarkers() map[int]PixelPoint {
	out := make(map[int]PixelPoint, len(r.balls))
	for f, p := range r.balls {
		out[f] = p
	}
	return out
}

// Circle returns the calibrated throwing-circle ellipse, if set.
func (r *Record) Circle() *ellipse.Ellipse {
	if r.circle == nil {
		return nil
	}
	c := *r.circle
	return &c
}

// ZeroAngle returns the zero-degree reference angle on the circle, if
// set.
func (r *Record) ZeroAngle() (float64, bool) {
	if r.zeroAngle == nil {
		return 0, false
	}
	return *r.zeroAngle, true
}

// Dirty reports whether unsaved mutations exist.
func (r *Record) Dirty() bool { return r.dirty }

// UndoDepth returns the number of undoable actions.
func (r *Record) UndoDepth() int { return len(r.undo) }

func (r *Record) push(a action) {
	r.undo = append(r.undo, a)
	r.dirty = true
}

// SetT0 sets the throw-start frame unconditionally.
func (r *Record) SetT0(frame int) {
	r.push(&setT0Action{prev: r.t0})
	r.t0 = frame
}

// SetRelease sets the release frame unconditionally.
func (r *Record) SetRelease(frame int) {
	r.push(&setReleaseAction{prev: r.release})
	r.release = frame
}

// AddTurnBoundary inserts a turn/wind boundary keeping the set sorted.
// It is a no-op returning false when the frame equals the current T0
// or is already present.
func (r *Record) AddTurnBoundary(frame int) bool {
	if frame == r.t0 || containsSorted(r.turns, frame) {
		return false
	}
	r.push(&addTurnAction{frame: frame})
	r.turns = insertSorted(r.turns, frame)
	return true
}

// AddSingleSupport marks frame as single-support. The SS and DS sets
// are mutually exclusive per frame: the frame is removed from the
// double-support set if present. No-op when already single-support.
func (r *Record) AddSingleSupport(frame int) bool {
	return r.addSupport(frame, true)
}

// AddDoubleSupport marks frame as double-support, removing any
// single-support mark at the same frame. No-op when already
// double-support.
func (r *Record) AddDoubleSupport(frame int) bool {
	return r.addSupport(frame, false)
}

func (r *Record) addSupport(frame int, single bool) bool {
	target, other := &r.ss, &r.ds
	if !single {
		target, other = &r.ds, &r.ss
	}
	if containsSorted(*target, frame) {
		return false
	}
	removedOther := containsSorted(*other, frame)
	r.push(&addSupportAction{frame: frame, single: single, removedOther: removedOther})
	if removedOther {
		*other = removeSorted(*other, frame)
	}
	*target = insertSorted(*target, frame)
	return true
}

// AddBallMarker places a ball marker at frame. At most one marker per
// frame: an existing marker is replaced, with the old value
// recoverable via undo.
func (r *Record) AddBallMarker(frame int, x, y float64) {
	var prev *PixelPoint
	if old, ok := r.balls[frame]; ok {
		prev = &old
	}
	r.push(&ballMarkerAction{frame: frame, prev: prev})
	r.balls[frame] = PixelPoint{X: x, Y: y}
}

// SetCircle installs the calibrated throwing-circle ellipse.
func (r *Record) SetCircle(e ellipse.Ellipse) {
	r.push(&setCircleAction{prev: r.circle})
	c := e
	r.circle = &c
}

// SetZeroAngle installs the zero-degree reference angle on the circle.
func (r *Record) SetZeroAngle(angle float64) {
	r.push(&setZeroAngleAction{prev: r.zeroAngle})
	a := angle
	r.zeroAngle = &a
}

// DeleteAtFrame removes every tag present at exactly frame (T0,
// release, turn boundary, SS, DS, ball marker) as one atomic action
// and one undo unit. Returns false when nothing was present.
func (r *Record) DeleteAtFrame(frame int) bool {
	del := &deleteAction{frame: frame}
	if r.t0 == frame {
		del.hadT0 = true
	}
	if r.release == frame {
		del.hadRelease = true
	}
	del.hadTurn = containsSorted(r.turns, frame)
	del.hadSS = containsSorted(r.ss, frame)
	del.hadDS = containsSorted(r.ds, frame)
	if p, ok := r.balls[frame]; ok {
		del.marker = &p
	}
	if !del.hadT0 && !del.hadRelease && !del.hadTurn && !del.hadSS && !del.hadDS && del.marker == nil {
		return false
	}
	r.push(del)
	if del.hadT0 {
		r.t0 = Unset
	}
	if del.hadRelease {
		r.release = Unset
	}
	if del.hadTurn {
		r.turns = removeSorted(r.turns, frame)
	}
	if del.hadSS {
		r.ss = removeSorted(r.ss, frame)
	}
	if del.hadDS {
		r.ds = removeSorted(r.ds, frame)
	}
	delete(r.balls, frame)
	return true
}

// Undo reverses the most recent action exactly. Returns false when
// the stack is empty.
func (r *Record) Undo() bool {
	if len(r.undo) == 0 {
		return false
	}
	a := r.undo[len(r.undo)-1]
	r.undo = r.undo[:len(r.undo)-1]
	a.revert(r)
	r.dirty = true
	return true
}

// ValidationError is the recoverable error class for save-time
// validation failures.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate enforces the save contract: T0 and release must be set and
// release must be strictly after T0.
func (r *Record) Validate() error {
	if r.t0 == Unset {
		return &ValidationError{Reason: "throw start (T0) is not set"}
	}
	if r.release == Unset {
		return &ValidationError{Reason: "release frame is not set"}
	}
	if r.release <= r.t0 {
		return &ValidationError{Reason: fmt.Sprintf("release frame %d must be after throw start %d", r.release, r.t0)}
	}
	return nil
}

// ClearDirty resets the dirty flag after a successful save.
func (r *Record) ClearDirty() { r.dirty = false }

func containsSorted(s []int, v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		return append(s[:i], s[i+1:]...)
	}
	return s
}

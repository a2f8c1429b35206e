package tags

import "github.com/giering/throwsage-viewer/internal/ellipse"

// action is one reversible mutation of the record. The variants form
// a closed set; each carries exactly the data needed to invert
// itself, including re-inserting set-valued fields at the correct
// sorted position.
type action interface {
	revert(r *Record)
}

type setT0Action struct {
	prev int
}

func (a *setT0Action) revert(r *Record) { r.t0 = a.prev }

type setReleaseAction struct {
	prev int
}

func (a *setReleaseAction) revert(r *Record) { r.release = a.prev }

type addTurnAction struct {
	frame int
}

func (a *addTurnAction) revert(r *Record) {
	r.turns = removeSorted(r.turns, a.frame)
}

type addSupportAction struct {
	frame        int
	single       bool
	removedOther bool
}

func (a *addSupportAction) revert(r *Record) {
	if a.single {
		r.ss = removeSorted(r.ss, a.frame)
		if a.removedOther {
			r.ds = insertSorted(r.ds, a.frame)
		}
	} else {
		r.ds = removeSorted(r.ds, a.frame)
		if a.removedOther {
			r.ss = insertSorted(r.ss, a.frame)
		}
	}
}

type ballMarkerAction struct {
	frame int
	prev  *PixelPoint // nil: no marker existed
}

func (a *ballMarkerAction) revert(r *Record) {
	if a.prev == nil {
		delete(r.balls, a.frame)
		return
	}
	r.balls[a.frame] = *a.prev
}

type setCircleAction struct {
	prev *ellipse.Ellipse
}

func (a *setCircleAction) revert(r *Record) { r.circle = a.prev }

type setZeroAngleAction struct {
	prev *float64
}

func (a *setZeroAngleAction) revert(r *Record) { r.zeroAngle = a.prev }

type deleteAction struct {
	frame      int
	hadT0      bool
	hadRelease bool
	hadTurn    bool
	hadSS      bool
	hadDS      bool
	marker     *PixelPoint
}

func (a *deleteAction) revert(r *Record) {
	if a.hadT0 {
		r.t0 = a.frame
	}
	if a.hadRelease {
		r.release = a.frame
	}
	if a.hadTurn {
		r.turns = insertSorted(r.turns, a.frame)
	}
	if a.hadSS {
		r.ss = insertSorted(r.ss, a.frame)
	}
	if a.hadDS {
		r.ds = insertSorted(r.ds, a.frame)
	}
	if a.marker != nil {
		r.balls[a.frame] = *a.marker
	}
}

package tags

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/giering/throwsage-viewer/internal/ellipse"
)

// Document is the persisted form of a Record. Encoding always writes
// the current layout; decoding additionally accepts the two legacy
// layouts still present in old saves: turn boundaries stored as an
// "all boundaries including T0" list, and support state stored as a
// combined (frame, code) mark list.
type Document struct {
	T0      *int `json:"t0,omitempty"`
	Release *int `json:"release,omitempty"`

	TurnBoundaries []int `json:"turn_boundaries,omitempty"`
	// Legacy: every boundary including T0; requires T0-relative
	// filtering on load.
	AllBoundaries []int `json:"boundaries,omitempty"`

	SSBoundaries []int `json:"ss_boundaries,omitempty"`
	DSBoundaries []int `json:"ds_boundaries,omitempty"`
	// Legacy: combined boundary+state-code list. Code 1 is single
	// support, 2 is double support.
	SupportMarks []SupportMark `json:"support_marks,omitempty"`

	BallMarkers []BallMarkerDoc  `json:"ball_markers,omitempty"`
	Circle      *ellipse.Ellipse `json:"circle,omitempty"`
	ZeroAngle   *float64         `json:"zero_angle,omitempty"`
}

// SupportMark is one entry of the legacy combined support encoding.
type SupportMark struct {
	Frame int `json:"frame"`
	Code  int `json:"code"`
}

// BallMarkerDoc is one persisted ball marker.
type BallMarkerDoc struct {
	Frame int     `json:"frame"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Encode serializes the record into its document form.
func (r *Record) Encode() *Document {
	doc := &Document{
		TurnBoundaries: r.TurnBoundaries(),
		SSBoundaries:   r.SingleSupport(),
		DSBoundaries:   r.DoubleSupport(),
		Circle:         r.Circle(),
	}
	if r.t0 != Unset {
		v := r.t0
		doc.T0 = &v
	}
	if r.release != Unset {
		v := r.release
		doc.Release = &v
	}
	if r.zeroAngle != nil {
		v := *r.zeroAngle
		doc.ZeroAngle = &v
	}
	frames := make([]int, 0, len(r.balls))
	for f := range r.balls {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	for _, f := range frames {
		p := r.balls[f]
		doc.BallMarkers = append(doc.BallMarkers, BallMarkerDoc{Frame: f, X: p.X, Y: p.Y})
	}
	return doc
}

// MarshalJSON renders the record as its document.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Encode())
}

// DecodeDocument restores a record from its persisted document,
// applying the legacy-format acceptance rules. The restored record
// starts clean, with an empty undo stack.
func DecodeDocument(doc *Document) (*Record, error) {
	r := NewRecord()
	if doc.T0 != nil {
		r.t0 = *doc.T0
	}
	if doc.Release != nil {
		r.release = *doc.Release
	}

	switch {
	case doc.TurnBoundaries != nil:
		r.turns = append([]int(nil), doc.TurnBoundaries...)
	case doc.AllBoundaries != nil:
		// Legacy list carries T0 itself; drop it.
		for _, f := range doc.AllBoundaries {
			if f != r.t0 {
				r.turns = append(r.turns, f)
			}
		}
	}
	sort.Ints(r.turns)

	switch {
	case doc.SSBoundaries != nil || doc.DSBoundaries != nil:
		r.ss = append([]int(nil), doc.SSBoundaries...)
		r.ds = append([]int(nil), doc.DSBoundaries...)
	case doc.SupportMarks != nil:
		for _, m := range doc.SupportMarks {
			switch m.Code {
			case 1:
				r.ss = append(r.ss, m.Frame)
			case 2:
				r.ds = append(r.ds, m.Frame)
			default:
				return nil, fmt.Errorf("unknown support code %d at frame %d", m.Code, m.Frame)
			}
		}
	}
	sort.Ints(r.ss)
	sort.Ints(r.ds)

	for _, b := range doc.BallMarkers {
		r.balls[b.Frame] = PixelPoint{X: b.X, Y: b.Y}
	}
	if doc.Circle != nil {
		c := *doc.Circle
		r.circle = &c
	}
	if doc.ZeroAngle != nil {
		v := *doc.ZeroAngle
		r.zeroAngle = &v
	}
	return r, nil
}

// DecodeJSON restores a record from persisted JSON bytes.
func DecodeJSON(data []byte) (*Record, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse annotation document: %w", err)
	}
	return DecodeDocument(&doc)
}

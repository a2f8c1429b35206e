package tags

import "fmt"

// Label pairs a turn-boundary frame with its derived display label.
type Label struct {
	Frame int    `json:"frame"`
	Text  string `json:"text"`
}

// Labels derives the display labels of every turn boundary. Labeling
// is positional, never stored: boundaries before T0 are winds
// ("W1".."Wn" in ascending frame order), boundaries after T0 are
// turns ("T1".."Tn"). With T0 unset every boundary is a turn. Labels
// therefore shift as T0 moves or boundaries come and go.
func (r *Record) Labels() []Label {
	out := make([]Label, 0, len(r.turns))
	if r.t0 == Unset {
		for i, f := range r.turns {
			out = append(out, Label{Frame: f, Text: fmt.Sprintf("T%d", i+1)})
		}
		return out
	}
	w, t := 0, 0
	for _, f := range r.turns {
		if f < r.t0 {
			w++
			out = append(out, Label{Frame: f, Text: fmt.Sprintf("W%d", w)})
		} else {
			t++
			out = append(out, Label{Frame: f, Text: fmt.Sprintf("T%d", t)})
		}
	}
	return out
}

// Package session binds one loaded dataset to its frame clock, metric
// cache, annotation record and calibration state. A session is the
// unit of interaction: every engine mutation goes through it, and a
// mutex at this boundary serializes access the way the single UI
// thread does in the browser tools.
package session

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/giering/throwsage-viewer/internal/config"
	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/ellipse"
	"github.com/giering/throwsage-viewer/internal/metrics"
	"github.com/giering/throwsage-viewer/internal/mhr"
	"github.com/giering/throwsage-viewer/internal/orbit"
	"github.com/giering/throwsage-viewer/internal/playback"
	"github.com/giering/throwsage-viewer/internal/tags"
	"github.com/giering/throwsage-viewer/internal/timeline"
	"github.com/giering/throwsage-viewer/internal/timeutil"
)

// hammerSeries adapts the dataset to the orbit detector.
type hammerSeries struct {
	ds *dataset.Dataset
}

func (h hammerSeries) Height(frame int) float64    { return h.ds.HammerHeight(frame) }
func (h hammerSeries) Position(frame int) mhr.Vec3 { return h.ds.HammerPosition(frame) }
func (h hammerSeries) Frames() int                 { return h.ds.Frames() }

// Session is the per-video engine state.
type Session struct {
	ID      string
	VideoID string

	mu        sync.Mutex
	ds        *dataset.Dataset
	clock     *playback.Clock
	cache     *metrics.Cache
	rec       *tags.Record
	preset    timeline.Preset
	extremes  []orbit.Extremum
	fitPoints []ellipse.Point
	tuning    *config.Tuning
}

// New builds a session over a loaded dataset. rec may be a previously
// saved record or nil for a fresh one. Metric series are built
// eagerly here, once; playback never recomputes them.
func New(videoID string, ds *dataset.Dataset, rec *tags.Record, tuning *config.Tuning, ts timeutil.Clock) *Session {
	if rec == nil {
		rec = tags.NewRecord()
		t0, release := tags.Unset, tags.Unset
		if ds.Meta.ThrowStart != nil {
			t0 = *ds.Meta.ThrowStart
		}
		if ds.Meta.ReleaseFrame != nil {
			release = *ds.Meta.ReleaseFrame
		}
		// Pipeline annotations are a starting point, not user actions:
		// they must not occupy the undo stack.
		rec.Seed(t0, release, ds.Meta.TurnBoundaries)
	}
	fps := tuning.GetFPS(ds.Meta.FPS)
	s := &Session{
		ID:      uuid.NewString(),
		VideoID: videoID,
		ds:      ds,
		clock:   playback.NewClock(fps, ds.Frames(), tuning.GetLoopPolicy(), ts),
		cache:   metrics.Build(ds),
		rec:     rec,
		preset:  timeline.RangeAll,
		tuning:  tuning,
	}
	s.refreshExtremes()
	s.refreshRange()
	return s
}

// Dataset returns the loaded dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Metrics returns the built metric cache.
func (s *Session) Metrics() *metrics.Cache { return s.cache }

// Record exposes the annotation record for persistence. Callers must
// hold no expectation of concurrent safety beyond the session lock.
func (s *Session) Record() *tags.Record { return s.rec }

// Lock serializes one interaction with the session, mirroring the
// single-threaded ownership of the browser model.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Clock returns the session frame clock.
func (s *Session) Clock() *playback.Clock { return s.clock }

// Preset returns the active timeline preset.
func (s *Session) Preset() timeline.Preset { return s.preset }

// SetPreset switches the timeline preset, recomputing the active
// range and clamping the cursor into it.
func (s *Session) SetPreset(p timeline.Preset) error {
	r, err := timeline.Compute(p, s.rec, s.ds)
	if err != nil {
		return err
	}
	s.preset = p
	s.clock.SetRange(r)
	return nil
}

// refreshRange recomputes the active range for the current preset.
// Called after T0 or release changes; a preset that became invalid
// (wind-up with T0 deleted) falls back to the full range.
func (s *Session) refreshRange() {
	r, err := timeline.Compute(s.preset, s.rec, s.ds)
	if err != nil {
		s.preset = timeline.RangeAll
		r, _ = timeline.Compute(s.preset, s.rec, s.ds)
	}
	s.clock.SetRange(r)
}

// refreshExtremes re-runs the orbit detector from the current turn
// boundaries and release frame.
func (s *Session) refreshExtremes() {
	release := s.rec.Release()
	if release == tags.Unset {
		release = s.ds.LastValidHammerFrame()
		if release < 0 {
			release = s.ds.Frames() - 1
		}
	}
	s.extremes = orbit.DetectExtremes(s.rec.TurnBoundaries(), hammerSeries{s.ds}, release)
}

// Extremes returns the detected orbit extremes.
func (s *Session) Extremes() []orbit.Extremum { return s.extremes }

// Tag operations. Each delegates to the record and refreshes the
// derived state that depends on the mutated field.

// SetT0 sets the throw-start frame.
func (s *Session) SetT0(frame int) {
	s.rec.SetT0(frame)
	s.refreshExtremes()
	s.refreshRange()
}

// SetRelease sets the release frame.
func (s *Session) SetRelease(frame int) {
	s.rec.SetRelease(frame)
	s.refreshExtremes()
	s.refreshRange()
}

// AddTurnBoundary adds a turn/wind boundary.
func (s *Session) AddTurnBoundary(frame int) bool {
	ok := s.rec.AddTurnBoundary(frame)
	if ok {
		s.refreshExtremes()
	}
	return ok
}

// DeleteAtFrame removes every tag at the frame.
func (s *Session) DeleteAtFrame(frame int) bool {
	ok := s.rec.DeleteAtFrame(frame)
	if ok {
		s.refreshExtremes()
		s.refreshRange()
	}
	return ok
}

// Undo reverses the most recent tag action.
func (s *Session) Undo() bool {
	ok := s.rec.Undo()
	if ok {
		s.refreshExtremes()
		s.refreshRange()
	}
	return ok
}

// Ellipse calibration flow.

// AddFitPoint appends a clicked calibration point. At most 5 points
// participate in a fit; extra clicks are rejected so the click state
// cannot drift.
func (s *Session) AddFitPoint(p ellipse.Point) error {
	if len(s.fitPoints) >= 5 {
		return fmt.Errorf("fit already has 5 points; fit or clear first")
	}
	s.fitPoints = append(s.fitPoints, p)
	return nil
}

// FitPointCount returns the number of collected calibration points.
func (s *Session) FitPointCount() int { return len(s.fitPoints) }

// ClearFitPoints discards the collected calibration points.
func (s *Session) ClearFitPoints() { s.fitPoints = nil }

// FitThrowingCircle runs the ellipse fit over the collected points.
// The points are consumed either way: both success and failure clear
// the click state. On success the fitted ellipse is stored in the
// annotation record.
func (s *Session) FitThrowingCircle() ellipse.Result {
	pts := s.fitPoints
	s.fitPoints = nil
	res := ellipse.Fit(pts, s.tuning.GetFitMinRadiusPx(), s.tuning.GetCanvasWidthPx())
	if res.Ok {
		s.rec.SetCircle(res.Ellipse)
	}
	return res
}

// FrameState is what the render layer consumes each tick: the frame
// plus everything derived from it.
type FrameState struct {
	Frame        int                  `json:"frame"`
	Playing      bool                 `json:"playing"`
	Range        playback.Range       `json:"range"`
	Metrics      map[string]float64   `json:"metrics"`
	Support      dataset.SupportState `json:"support"`
	HammerValid  bool                 `json:"hammer_valid"`
	Hammer       mhr.Vec3             `json:"hammer,omitempty"`
	MarkerFades  []MarkerFade         `json:"marker_fades,omitempty"`
	Labels       []tags.Label         `json:"labels"`
	UndoDepth    int                  `json:"undo_depth"`
	Dirty        bool                 `json:"dirty"`
}

// MarkerFade is the per-extremum opacity at the current cursor.
type MarkerFade struct {
	Extremum orbit.Extremum `json:"extremum"`
	Opacity  float64        `json:"opacity"`
}

// State assembles the render-facing view of the current frame.
func (s *Session) State() FrameState {
	f := s.clock.Frame()
	st := FrameState{
		Frame:       f,
		Playing:     s.clock.Playing(),
		Range:       s.clock.ActiveRange(),
		Metrics:     make(map[string]float64),
		Support:     s.ds.SupportAt(f),
		HammerValid: s.ds.HammerValid(f),
		Labels:      s.rec.Labels(),
		UndoDepth:   s.rec.UndoDepth(),
		Dirty:       s.rec.Dirty(),
	}
	if st.HammerValid {
		st.Hammer = s.ds.HammerPosition(f)
	}
	for _, name := range s.cache.Names() {
		// NaN marks untracked frames and cannot be marshaled; absence
		// from the map carries the same meaning.
		if v, err := s.cache.ValueAt(name, f); err == nil && !math.IsNaN(v) {
			st.Metrics[name] = v
		}
	}
	for _, e := range s.extremes {
		if op := orbit.FadeOpacity(e, f); op > 0 {
			st.MarkerFades = append(st.MarkerFades, MarkerFade{Extremum: e, Opacity: op})
		}
	}
	return st
}

// Registry tracks live sessions by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Package api exposes the viewer engine over HTTP/JSON for the
// browser tools.
package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/giering/throwsage-viewer/internal/config"
	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/ellipse"
	"github.com/giering/throwsage-viewer/internal/fetch"
	"github.com/giering/throwsage-viewer/internal/httputil"
	"github.com/giering/throwsage-viewer/internal/metrics"
	"github.com/giering/throwsage-viewer/internal/monitoring"
	"github.com/giering/throwsage-viewer/internal/session"
	"github.com/giering/throwsage-viewer/internal/tags"
	"github.com/giering/throwsage-viewer/internal/tagstore"
	"github.com/giering/throwsage-viewer/internal/timeline"
	"github.com/giering/throwsage-viewer/internal/timeutil"
)

// ANSI escape codes for request logging.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server carries the shared collaborators of all handlers.
type Server struct {
	store       *tagstore.Store
	registry    *session.Registry
	datasetRoot string
	tuning      *config.Tuning
	clock       timeutil.Clock

	fetchMu sync.Mutex
	fetches map[string]*fetch.Job
}

// NewServer builds the API server. datasetRoot is the directory that
// holds one subdirectory of pipeline output per video.
func NewServer(store *tagstore.Store, datasetRoot string, tuning *config.Tuning) *Server {
	return &Server{
		store:       store,
		registry:    session.NewRegistry(),
		datasetRoot: datasetRoot,
		tuning:      tuning,
		clock:       timeutil.RealClock{},
		fetches:     make(map[string]*fetch.Job),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux mounts every API route.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.openSession)
	mux.HandleFunc("GET /sessions/{id}", s.sessionState)
	mux.HandleFunc("POST /sessions/{id}/tick", s.tick)
	mux.HandleFunc("POST /sessions/{id}/play", s.play)
	mux.HandleFunc("POST /sessions/{id}/pause", s.pause)
	mux.HandleFunc("POST /sessions/{id}/seek", s.seek)
	mux.HandleFunc("POST /sessions/{id}/step", s.step)
	mux.HandleFunc("POST /sessions/{id}/speed", s.speed)
	mux.HandleFunc("POST /sessions/{id}/preset", s.preset)
	mux.HandleFunc("GET /sessions/{id}/metrics/{name}", s.metricSeries)
	mux.HandleFunc("GET /sessions/{id}/metrics/{name}/chart", s.metricChart)
	mux.HandleFunc("GET /sessions/{id}/metrics/{name}/plot.png", s.metricPlot)
	mux.HandleFunc("GET /sessions/{id}/extremes", s.extremes)
	mux.HandleFunc("POST /sessions/{id}/tags/{kind}", s.addTag)
	mux.HandleFunc("POST /sessions/{id}/delete", s.deleteAtFrame)
	mux.HandleFunc("POST /sessions/{id}/undo", s.undo)
	mux.HandleFunc("POST /sessions/{id}/save", s.save)
	mux.HandleFunc("POST /sessions/{id}/fit/points", s.addFitPoint)
	mux.HandleFunc("DELETE /sessions/{id}/fit/points", s.clearFitPoints)
	mux.HandleFunc("POST /sessions/{id}/fit", s.fit)
	mux.HandleFunc("POST /videos/{id}/fetch", s.startFetch)
	mux.HandleFunc("GET /videos/{id}/fetch", s.fetchProgress)
	return mux
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		httputil.NotFound(w, "unknown session")
		return nil, false
	}
	return sess, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

type openSessionRequest struct {
	VideoID string `json:"video_id"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.VideoID == "" {
		httputil.BadRequest(w, "video_id is required")
		return
	}

	dir := filepath.Join(s.datasetRoot, filepath.Base(req.VideoID))
	meta, err := dataset.LoadMetadata(filepath.Join(dir, "metadata.json"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ds, err := dataset.Load(dir, meta)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rec, _, err := s.store.Load(req.VideoID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	sess := session.New(req.VideoID, ds, rec, s.tuning, s.clock)
	s.registry.Add(sess)
	if err := s.store.RecordSession(sess.ID, req.VideoID); err != nil {
		monitoring.Logf("failed to record session open: %v", err)
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id": sess.ID,
		"frames":     ds.Frames(),
		"fps":        meta.FPS,
		"metrics":    sess.Metrics().Names(),
	})
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().Tick()
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().Play()
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().Pause()
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Frame int `json:"frame"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().Seek(req.Frame)
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) step(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		httputil.BadRequest(w, "delta must be +1 or -1")
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().Step(req.Delta)
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) speed(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Speed <= 0 {
		httputil.BadRequest(w, "speed must be positive")
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Clock().SetSpeed(req.Speed)
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) preset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Preset string `json:"preset"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := timeline.ParsePreset(req.Preset)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sess.Lock()
	defer sess.Unlock()
	if err := sess.SetPreset(p); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) metricSeries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	series, ok := sess.Metrics().Get(r.PathValue("name"))
	if !ok {
		httputil.NotFound(w, "metric absent")
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"name":   series.Name,
		"source": series.Source.String(),
		"values": nullableValues(series),
	})
}

// nullableValues re-encodes a metric series for JSON. NaN marks
// untracked frames and cannot be marshaled; those frames carry null
// so the payload keeps one entry per frame.
func nullableValues(series *metrics.Series) []*float64 {
	out := make([]*float64, series.Len())
	for f := range out {
		if v := series.ValueAt(f); !math.IsNaN(v) {
			v := v
			out[f] = &v
		}
	}
	return out
}

func (s *Server) extremes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	httputil.WriteJSONOK(w, sess.Extremes())
}

type tagRequest struct {
	Frame int      `json:"frame"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Angle *float64 `json:"angle,omitempty"`
}

func (s *Server) addTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	applied := true
	switch r.PathValue("kind") {
	case "t0":
		sess.SetT0(req.Frame)
	case "release":
		sess.SetRelease(req.Frame)
	case "turn":
		applied = sess.AddTurnBoundary(req.Frame)
	case "ss":
		applied = sess.Record().AddSingleSupport(req.Frame)
	case "ds":
		applied = sess.Record().AddDoubleSupport(req.Frame)
	case "ball":
		if req.X == nil || req.Y == nil {
			httputil.BadRequest(w, "ball markers require x and y")
			return
		}
		sess.Record().AddBallMarker(req.Frame, *req.X, *req.Y)
	case "zero_angle":
		if req.Angle == nil {
			httputil.BadRequest(w, "zero_angle requires angle")
			return
		}
		sess.Record().SetZeroAngle(*req.Angle)
	default:
		httputil.BadRequest(w, "unknown tag kind")
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"applied": applied,
		"state":   sess.State(),
	})
}

func (s *Server) deleteAtFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Frame int `json:"frame"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"applied": sess.DeleteAtFrame(req.Frame),
		"state":   sess.State(),
	})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"applied": sess.Undo(),
		"state":   sess.State(),
	})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	if err := s.store.Save(sess.VideoID, sess.Record()); err != nil {
		var verr *tags.ValidationError
		if errors.As(err, &verr) {
			httputil.Conflict(w, verr.Reason)
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]bool{"saved": true})
}

func (s *Server) addFitPoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p ellipse.Point
	if !decodeBody(w, r, &p) {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	if err := sess.AddFitPoint(p); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]int{"points": sess.FitPointCount()})
}

func (s *Server) clearFitPoints(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.ClearFitPoints()
	httputil.WriteJSONOK(w, map[string]int{"points": 0})
}

func (s *Server) fit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	httputil.WriteJSONOK(w, sess.FitThrowingCircle())
}

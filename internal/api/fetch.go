package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/fetch"
	"github.com/giering/throwsage-viewer/internal/httputil"
	"github.com/giering/throwsage-viewer/internal/monitoring"
)

// startFetch launches a background download of one video's pipeline
// output into the dataset root. Progress is polled via fetchProgress;
// one transfer per video at a time.
func (s *Server) startFetch(w http.ResponseWriter, r *http.Request) {
	videoID := filepath.Base(r.PathValue("id"))
	var req struct {
		BaseURL string `json:"base_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BaseURL == "" {
		httputil.BadRequest(w, "base_url is required")
		return
	}

	s.fetchMu.Lock()
	if job, ok := s.fetches[videoID]; ok && job.Running() {
		s.fetchMu.Unlock()
		httputil.Conflict(w, "fetch already in flight for this video")
		return
	}
	job := fetch.NewJob()
	s.fetches[videoID] = job
	s.fetchMu.Unlock()

	dest := filepath.Join(s.datasetRoot, videoID)
	go func() {
		err := fetch.Dataset(context.Background(), http.DefaultClient, req.BaseURL, dest, job)
		job.Complete(err)
		if err != nil {
			monitoring.Logf("fetch of %s failed: %v", videoID, err)
		} else {
			monitoring.Logf("fetch of %s complete in %s", videoID, dest)
		}
	}()

	httputil.WriteJSONOK(w, job.Snapshot())
}

// fetchProgress reports the bytes-loaded/total state of a video fetch.
func (s *Server) fetchProgress(w http.ResponseWriter, r *http.Request) {
	videoID := filepath.Base(r.PathValue("id"))
	s.fetchMu.Lock()
	job, ok := s.fetches[videoID]
	s.fetchMu.Unlock()
	if !ok {
		httputil.NotFound(w, "no fetch for this video")
		return
	}
	httputil.WriteJSONOK(w, job.Snapshot())
}

package fetch

import (
	"io"
	"sync"
)

// Job status values.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Progress is a point-in-time snapshot of a dataset fetch. BytesTotal
// is -1 when the remote sent no content length for the current file.
type Progress struct {
	Status      string `json:"status"`
	File        string `json:"file,omitempty"`
	BytesLoaded int64  `json:"bytes_loaded"`
	BytesTotal  int64  `json:"bytes_total"`
	FilesDone   int    `json:"files_done"`
	Error       string `json:"error,omitempty"`
}

// Job is a Sink that records transfer progress for polling. One job
// tracks one Dataset call; Complete seals the outcome.
type Job struct {
	mu sync.Mutex
	p  Progress
}

// NewJob returns a job in the running state.
func NewJob() *Job {
	return &Job{p: Progress{Status: StatusRunning}}
}

// Snapshot returns the current progress.
func (j *Job) Snapshot() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.p
}

// Running reports whether the job is still in flight.
func (j *Job) Running() bool {
	return j.Snapshot().Status == StatusRunning
}

// Start begins tracking one file transfer.
func (j *Job) Start(name string, total int64) io.Writer {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.p.File = name
	j.p.BytesLoaded = 0
	j.p.BytesTotal = total
	return jobWriter{j}
}

// Done records one finished file. Failed optional files do not count.
func (j *Job) Done(name string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err == nil {
		j.p.FilesDone++
	}
}

// Complete seals the job with the overall outcome of the fetch.
func (j *Job) Complete(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.p.Status = StatusFailed
		j.p.Error = err.Error()
		return
	}
	j.p.Status = StatusDone
	j.p.File = ""
}

type jobWriter struct{ j *Job }

func (w jobWriter) Write(p []byte) (int, error) {
	w.j.mu.Lock()
	w.j.p.BytesLoaded += int64(len(p))
	w.j.mu.Unlock()
	return len(p), nil
}

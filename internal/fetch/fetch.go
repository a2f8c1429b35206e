// Package fetch downloads one video's pipeline output (metadata
// descriptor, binary series, and the video itself) from a remote base
// URL into a local dataset directory. Transfer progress is streamed
// to a caller-supplied sink, which the CLI renders as a terminal bar
// and the API surfaces as a polling endpoint. Each file lands through
// a temp-file rename so an interrupted transfer never leaves a
// partially populated series.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/monitoring"
)

// Sink receives transfer progress. Start is called once per file and
// returns a writer the transferred bytes are teed into; Done follows
// with the per-file outcome.
type Sink interface {
	Start(name string, total int64) io.Writer
	Done(name string, err error)
}

// Dataset downloads a complete dataset from baseURL into destDir.
// The metadata descriptor is fetched and validated first; a missing
// required series aborts, a missing optional file is logged and
// skipped.
func Dataset(ctx context.Context, client *http.Client, baseURL, destDir string, sink Sink) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	if err := download(ctx, client, baseURL, destDir, "metadata.json", sink); err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}
	meta, err := dataset.LoadMetadata(filepath.Join(destDir, "metadata.json"))
	if err != nil {
		return fmt.Errorf("fetched metadata is invalid: %w", err)
	}

	required := []string{meta.VerticesFile, meta.FacesFile, meta.KeypointsFile, meta.HammerFile}
	optional := []string{
		meta.SupportFile, meta.FillFile, meta.CircleCenterFile,
		meta.LegAlignmentFile, meta.SeparationFile, meta.BackLeanFile,
		meta.PaintFile, meta.VideoFile,
	}

	for _, f := range required {
		if err := download(ctx, client, baseURL, destDir, f, sink); err != nil {
			return fmt.Errorf("fetch required series %s: %w", f, err)
		}
	}
	for _, f := range optional {
		if f == "" {
			continue
		}
		if err := download(ctx, client, baseURL, destDir, f, sink); err != nil {
			monitoring.Logf("optional file %s unavailable: %v", f, err)
		}
	}
	return nil
}

func download(ctx context.Context, client *http.Client, baseURL, destDir, name string, sink Sink) (err error) {
	// Metadata file names come from the remote; confine them to the
	// dest dir.
	name = filepath.Base(name)
	defer func() { sink.Done(name, err) }()

	url := baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(destDir, "."+name+".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := sink.Start(name, resp.ContentLength)
	if _, err := io.Copy(io.MultiWriter(tmp, w), resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(destDir, name))
}

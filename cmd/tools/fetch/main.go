// fetch downloads one video's pipeline output (metadata descriptor,
// binary series, and the video itself) from a remote base URL into a
// local dataset directory, with byte-level progress reporting.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"

	"github.com/schollz/progressbar/v3"

	"github.com/giering/throwsage-viewer/internal/fetch"
)

var (
	baseURL = flag.String("base", "", "Remote base URL holding the pipeline output")
	destDir = flag.String("dest", "", "Local dataset directory to populate")
)

// barSink renders each file transfer as a terminal progress bar.
type barSink struct{}

func (barSink) Start(name string, total int64) io.Writer {
	return progressbar.DefaultBytes(total, name)
}

func (barSink) Done(name string, err error) {}

func main() {
	flag.Parse()
	if *baseURL == "" || *destDir == "" {
		log.Fatal("-base and -dest are required")
	}
	if err := fetch.Dataset(context.Background(), http.DefaultClient, *baseURL, *destDir, barSink{}); err != nil {
		log.Fatalf("failed to fetch dataset: %v", err)
	}
	log.Printf("dataset complete in %s", *destDir)
}

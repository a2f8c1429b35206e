// metric-plot renders PNG plots of every derived metric series for a
// loaded dataset, for offline review outside the browser tools.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/api"
	"github.com/giering/throwsage-viewer/internal/dataset"
	"github.com/giering/throwsage-viewer/internal/metrics"
	"github.com/giering/throwsage-viewer/internal/tags"
	"github.com/giering/throwsage-viewer/internal/tagstore"
)

var (
	datasetDir = flag.String("dataset", "", "Pipeline output directory (with metadata.json)")
	outDir     = flag.String("out", "plots", "Output directory for PNG files")
	dbFile     = flag.String("db", "", "Optional annotation database; marks T0/release when the video has a save")
	videoID    = flag.String("video", "", "Video identifier for the annotation lookup")
)

func main() {
	flag.Parse()
	if *datasetDir == "" {
		log.Fatal("-dataset is required")
	}

	meta, err := dataset.LoadMetadata(filepath.Join(*datasetDir, "metadata.json"))
	if err != nil {
		log.Fatalf("failed to load metadata: %v", err)
	}
	ds, err := dataset.Load(*datasetDir, meta)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	cache := metrics.Build(ds)

	rec := tags.NewRecord()
	if *dbFile != "" && *videoID != "" {
		store, err := tagstore.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open annotation store: %v", err)
		}
		defer store.Close()
		if saved, ok, err := store.Load(*videoID); err != nil {
			log.Fatalf("failed to load annotations: %v", err)
		} else if ok {
			rec = saved
		}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	for _, name := range cache.Names() {
		series, _ := cache.Get(name)
		png, err := api.RenderSeriesPNG(series, rec)
		if err != nil {
			log.Fatalf("failed to render %s: %v", name, err)
		}
		out := filepath.Join(*outDir, fmt.Sprintf("%s.png", name))
		if err := os.WriteFile(out, png, 0644); err != nil {
			log.Fatalf("failed to write %s: %v", out, err)
		}
		log.Printf("wrote %s (%s, %d frames)", out, series.Source, series.Len())
	}
}

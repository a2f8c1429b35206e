package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/giering/throwsage-viewer/internal/api"
	"github.com/giering/throwsage-viewer/internal/config"
	"github.com/giering/throwsage-viewer/internal/tagstore"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode     = flag.Bool("dev", false, "Serve static files from ./static instead of the embedded copy")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "annotations.db", "Annotation database file")
	datasetRoot = flag.String("datasets", "datasets", "Directory holding one pipeline-output subdirectory per video")
	tuningFile  = flag.String("tuning", "", "Optional JSON tuning file")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var tuning *config.Tuning
	if *tuningFile != "" {
		var err error
		tuning, err = config.Load(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning: %v", err)
		}
	}

	store, err := tagstore.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open annotation store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	apiMux := api.NewServer(store, *datasetRoot, tuning).ServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	// Serve the tool shells from the embedded filesystem in
	// production, or from ./static in dev for iteration without
	// restarting the server.
	var staticHandler http.Handler
	if *devMode {
		staticHandler = http.FileServer(http.Dir("./static"))
	} else {
		staticHandler = http.FileServer(http.FS(staticFiles))
	}
	mux.Handle("/", staticHandler)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("graceful shutdown complete")
}

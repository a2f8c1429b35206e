// Package tagstore persists annotation records in SQLite, keyed by
// video identifier.
package tagstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/giering/throwsage-viewer/internal/tags"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store wraps the annotation database.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the store at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open annotation db: %w", err)
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// The migrate instance shares our connection; closing it would
	// close the store.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Save validates the record and writes its document keyed by videoID,
// replacing any prior save. On success the record's dirty flag is
// cleared. Validation failures return the record's ValidationError
// untouched so callers can report them as recoverable.
func (s *Store) Save(videoID string, rec *tags.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(rec.Encode())
	if err != nil {
		return fmt.Errorf("encode annotation document: %w", err)
	}
	_, err = s.Exec(
		`INSERT INTO annotations (video_id, doc, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET doc = excluded.doc, saved_at = excluded.saved_at`,
		videoID, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save annotations for %s: %w", videoID, err)
	}
	rec.ClearDirty()
	return nil
}

// Load restores the record saved for videoID. A missing key is
// absence, not an error: ok is false and the record is nil.
func (s *Store) Load(videoID string) (rec *tags.Record, ok bool, err error) {
	var doc string
	err = s.QueryRow(`SELECT doc FROM annotations WHERE video_id = ?`, videoID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load annotations for %s: %w", videoID, err)
	}
	rec, err = tags.DecodeJSON([]byte(doc))
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// RecordSession logs a session open event for the registry.
func (s *Store) RecordSession(sessionID, videoID string) error {
	_, err := s.Exec(
		`INSERT INTO sessions (session_id, video_id, started_at) VALUES (?, ?, ?)`,
		sessionID, videoID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", sessionID, err)
	}
	return nil
}

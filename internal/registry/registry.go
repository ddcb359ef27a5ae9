package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// FileName is the registry database inside the cache root.
const FileName = "registry.db"

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("registry entry not found")

// Record is one built artifact.
type Record struct {
	Key       string          `json:"key"`
	Path      string          `json:"path"`
	Box       geo.BoundingBox `json:"bbox"`
	Cols      int             `json:"cols"`
	Rows      int             `json:"rows"`
	Tiles     int             `json:"tiles"`
	Missing   int             `json:"missing"`
	Size      int64           `json:"size"`
	BuiltAt   time.Time       `json:"builtAt"`
	BuildTime time.Duration   `json:"buildTime"`
}

// Registry keeps a history of built artifacts in sqlite. It is advisory:
// the artifact files are the source of truth.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	lat_min    REAL NOT NULL,
	lat_max    REAL NOT NULL,
	lon_min    REAL NOT NULL,
	lon_max    REAL NOT NULL,
	cols       INTEGER NOT NULL,
	rows       INTEGER NOT NULL,
	tiles      INTEGER NOT NULL,
	missing    INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	built_at   INTEGER NOT NULL,
	build_ms   INTEGER NOT NULL
);`

// Open opens or creates the registry at path.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// several processes may record at once
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Put inserts or replaces the record for rec.Key.
func (r *Registry) Put(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO artifacts
			(key, path, lat_min, lat_max, lon_min, lon_max, cols, rows, tiles, missing, size, built_at, build_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.Path,
		rec.Box.LatMin, rec.Box.LatMax, rec.Box.LonMin, rec.Box.LonMax,
		rec.Cols, rec.Rows, rec.Tiles, rec.Missing, rec.Size,
		rec.BuiltAt.UnixMilli(), rec.BuildTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.Key, err)
	}
	return nil
}

// Get returns the record for key.
func (r *Registry) Get(ctx context.Context, key string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecords+` WHERE key = ?`, key)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns all records, most recent first.
func (r *Registry) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecords+` ORDER BY built_at DESC, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete forgets key. Unknown keys are not an error.
func (r *Registry) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, key)
	return err
}

const selectRecords = `SELECT key, path, lat_min, lat_max, lon_min, lon_max, cols, rows, tiles, missing, size, built_at, build_ms FROM artifacts`

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Record, error) {
	var rec Record
	var builtAt, buildMs int64
	err := s.Scan(
		&rec.Key, &rec.Path,
		&rec.Box.LatMin, &rec.Box.LatMax, &rec.Box.LonMin, &rec.Box.LonMax,
		&rec.Cols, &rec.Rows, &rec.Tiles, &rec.Missing, &rec.Size,
		&builtAt, &buildMs,
	)
	if err != nil {
		return Record{}, err
	}
	rec.BuiltAt = time.UnixMilli(builtAt).UTC()
	rec.BuildTime = time.Duration(buildMs) * time.Millisecond
	return rec, nil
}

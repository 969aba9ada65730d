// Package store caches the last fetched record snapshot in a local
// sqlite database so scan and check commands can run without hitting the
// record source. Only the snapshot is persisted; duplicate groups and
// merge drafts are session state and never touch disk.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/errors"
	"github.com/refmend/refmend/pkg/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	key     TEXT PRIMARY KEY,
	pos     INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a sqlite-backed snapshot cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, &errors.ConfigError{Component: "store", Message: "cache path is required"}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot cache: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing snapshot cache: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the cached snapshot with records, preserving their order.
func (s *Store) Save(ctx context.Context, records []bib.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO records (key, pos, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = insert.Close() }()

	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", rec.Key, err)
		}
		if _, err := insert.ExecContext(ctx, rec.Key, i, string(payload)); err != nil {
			return fmt.Errorf("storing record %s: %w", rec.Key, err)
		}
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (name, value) VALUES ('fetched_at', ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`, fetchedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logging.Debug().Int("count", len(records)).Str("path", s.path).Msg("snapshot cached")
	return nil
}

// Load returns the cached snapshot in its original order. An empty cache
// yields ErrNotFound so callers can fall back to a live fetch.
func (s *Store) Load(ctx context.Context) ([]bib.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM records ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []bib.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec bib.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decoding cached record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &errors.NotFoundError{Resource: "snapshot", Key: s.path}
	}
	return records, nil
}

// FetchedAt returns when the cached snapshot was saved, or the zero time
// for an empty cache.
func (s *Store) FetchedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE name = 'fetched_at'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// Package history journals applied threshold changes in SQLite so the CLI
// can replay what the daemon did and when.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one applied threshold change.
type Entry struct {
	ID            int64
	AppliedAt     time.Time
	Control       string
	Value         uint8
	Source        string
	CorrelationID string
}

// Store manages the threshold journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS threshold_events (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    applied_at     TEXT NOT NULL,
    control        TEXT NOT NULL CHECK (control IN ('start', 'end')),
    value          INTEGER NOT NULL CHECK (value BETWEEN 0 AND 255),
    source         TEXT NOT NULL,
    correlation_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_threshold_events_applied_at
    ON threshold_events (applied_at DESC);
`

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location backing the journal.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record appends one applied threshold change. A nil store discards the
// entry, which lets callers treat journaling as optional.
func (s *Store) Record(ctx context.Context, control string, value uint8, source, correlationID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO threshold_events (applied_at, control, value, source, correlation_id)
         VALUES (?, ?, ?, ?, ?)`,
		timestamp,
		control,
		int(value),
		source,
		correlationID,
	)
	if err != nil {
		return fmt.Errorf("insert threshold event: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first. Limit zero or
// negative means a default page of 50.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, applied_at, control, value, source, correlation_id
         FROM threshold_events
         ORDER BY id DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query threshold events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			appliedAt string
			value     int
		)
		if err := rows.Scan(&entry.ID, &appliedAt, &entry.Control, &value, &entry.Source, &entry.CorrelationID); err != nil {
			return nil, fmt.Errorf("scan threshold event: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, appliedAt)
		if err != nil {
			return nil, fmt.Errorf("parse applied_at %q: %w", appliedAt, err)
		}
		entry.AppliedAt = parsed
		entry.Value = uint8(value)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threshold events: %w", err)
	}
	return entries, nil
}

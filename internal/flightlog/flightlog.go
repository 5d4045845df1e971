// Package flightlog persists flight samples to a local SQLite database
// so a run can be inspected after the session is gone.
package flightlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    at    TIMESTAMP NOT NULL,
    kind  TEXT NOT NULL,
    roll  REAL NOT NULL,
    pitch REAL NOT NULL,
    yaw   REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_kind_at ON samples (kind, at);
`

// Sample kinds.
const (
	KindAttitude = "attitude"
	KindRC       = "rc"
	KindCommand  = "command"
)

// Sample is one recorded axis triple. For attitude samples Yaw holds
// the heading.
type Sample struct {
	At    time.Time
	Kind  string
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Store wraps a SQLite database of flight samples.
type Store struct {
	db *sql.DB
}

// DefaultPath returns $XDG_STATE_HOME/dronedeck/flight.db.
func DefaultPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "dronedeck", "flight.db"), nil
}

// Open creates or opens the flight log at path ("" uses DefaultPath).
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one sample.
func (s *Store) Record(kind string, roll, pitch, yaw float64) error {
	_, err := s.db.Exec(
		"INSERT INTO samples (at, kind, roll, pitch, yaw) VALUES (?, ?, ?, ?, ?)",
		time.Now().UTC(), kind, roll, pitch, yaw)
	if err != nil {
		return fmt.Errorf("record %s sample: %w", kind, err)
	}
	return nil
}

// Recent returns the newest n samples of a kind, newest first.
func (s *Store) Recent(kind string, n int) ([]Sample, error) {
	rows, err := s.db.Query(
		"SELECT at, kind, roll, pitch, yaw FROM samples WHERE kind = ? ORDER BY at DESC, id DESC LIMIT ?",
		kind, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.At, &smp.Kind, &smp.Roll, &smp.Pitch, &smp.Yaw); err != nil {
			return nil, err
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Count returns the number of stored samples of a kind.
func (s *Store) Count(kind string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM samples WHERE kind = ?", kind).Scan(&n)
	return n, err
}

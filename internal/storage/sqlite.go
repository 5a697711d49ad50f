// ABOUTME: SQLite storage implementation for run records
// ABOUTME: Provides local-only persistence using pure Go SQLite driver

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/runtrack/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements RunStore with a local SQLite database.
// Records are stored as JSON payloads keyed by their run key.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Compile-time check that SQLiteStore implements RunStore.
var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
// Creates the directory and database file if they don't exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates or updates the database schema.
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			key TEXT PRIMARY KEY,
			date DATETIME NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a run.
func (s *SQLiteStore) Put(key string, rec *models.RunRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return storageErr("marshal run", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (key, date, payload) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET date = excluded.date, payload = excluded.payload`,
		key, rec.Date.UTC(), string(payload),
	)
	if err != nil {
		return storageErr("insert run", err)
	}
	return nil
}

// Get retrieves a run by key.
func (s *SQLiteStore) Get(key string) (*models.RunRecord, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM runs WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("scan run", err)
	}

	var rec models.RunRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, storageErr("unmarshal run", err)
	}
	return &rec, nil
}

// List returns all run keys.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM runs")
	if err != nil {
		return nil, storageErr("query runs", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, storageErr("scan key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate runs", err)
	}
	return keys, nil
}

// Delete removes a run. Missing keys are ignored.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM runs WHERE key = ?", key); err != nil {
		return storageErr("delete run", err)
	}
	return nil
}

// Reset clears all runs from the database.
func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec("DELETE FROM runs"); err != nil {
		return storageErr("reset", err)
	}
	return nil
}

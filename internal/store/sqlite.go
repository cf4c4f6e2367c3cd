package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps fingerprints in a single SQLite table. Inserts are
// transactional, so concurrent writers across processes cannot lose each
// other's fingerprints the way the file backend can.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// NewSQLiteStore opens the database at path, creating it and its schema if
// needed. Pass ":memory:" for a private in-memory store (testing).
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// an in-memory database is per-connection; keep the pool at one
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS fingerprints (
		hash TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, log: logger}, nil
}

// Contains reports whether fp is recorded. Query faults degrade to "not
// seen" with a logged warning, matching the file backend's availability
// tradeoff.
func (s *SQLiteStore) Contains(fp string) bool {
	if fp == "" {
		return false
	}
	var one int
	err := s.db.QueryRow("SELECT 1 FROM fingerprints WHERE hash = ?", fp).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.Warn("fingerprint lookup failed", zap.Error(err))
		return false
	}
	return true
}

// Add inserts fp, reporting whether it was newly recorded.
func (s *SQLiteStore) Add(fp string) bool {
	if fp == "" {
		return false
	}
	res, err := s.db.Exec("INSERT OR IGNORE INTO fingerprints (hash) VALUES (?)", fp)
	if err != nil {
		s.log.Warn("fingerprint insert failed", zap.Error(err))
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.log.Warn("fingerprint insert result unavailable", zap.Error(err))
		return false
	}
	return n > 0
}

// Clear removes every fingerprint.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM fingerprints")
	return err
}

// Stats returns the current fingerprint count.
func (s *SQLiteStore) Stats() Stats {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&count); err != nil {
		s.log.Warn("fingerprint count failed", zap.Error(err))
		return Stats{}
	}
	return Stats{Count: count}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

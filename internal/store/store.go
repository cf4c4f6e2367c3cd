// Package store provides the persistent fingerprint set used for duplicate
// detection.
//
// A fingerprint is the MD5 digest of a normalized full name. Two backends
// implement the same Store interface:
//   - FileStore: a JSON array of digest strings, fully rewritten on every
//     insert (the historical on-disk format).
//   - SQLiteStore: a transactional SQLite table, safe for concurrent
//     writers across processes.
package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted in configuration.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultPath is the default fingerprint file location.
const DefaultPath = "user_data/fio_hashes.json"

// Stats holds observability counters for a store.
type Stats struct {
	Count int `json:"count"`
}

// Store is a persistent set of name fingerprints.
type Store interface {
	// Contains reports whether fp is already recorded. An empty fp is
	// never contained.
	Contains(fp string) bool

	// Add inserts fp and reports whether it was newly recorded. Empty
	// fingerprints and already-present ones return false.
	Add(fp string) bool

	// Clear removes every recorded fingerprint.
	Clear() error

	// Stats returns current counters.
	Stats() Stats

	Close() error
}

// Config holds configuration for Open.
type Config struct {
	// Path is the backing file. For the sqlite backend ":memory:" opens a
	// private in-memory database (testing).
	Path string

	// Backend selects the implementation: "file" (default) or "sqlite".
	Backend string

	Logger *zap.Logger
}

// Open creates a Store for the configured backend.
func Open(cfg Config) (Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path, cfg.Logger)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path, cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

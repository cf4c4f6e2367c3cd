package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore persists fingerprints as a pretty-printed JSON array of digest
// strings. The whole set is loaded at construction and rewritten on every
// insert.
//
// Known weakness: the rewrite is last-writer-wins. A mutex serializes
// writers within one process; concurrent processes sharing one file can
// still lose fingerprints. Use the sqlite backend when that matters.
type FileStore struct {
	mu    sync.Mutex
	path  string
	seen  map[string]struct{}
	order []string // insertion order, keeps the file diffable
	log   *zap.Logger
}

// NewFileStore opens (or lazily creates) the store at path. A missing file
// is an empty set; an unreadable or corrupt file degrades to an empty set
// with a logged warning rather than failing the caller.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path: path,
		seen: make(map[string]struct{}),
		log:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("fingerprint file unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return s, nil
	}

	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		logger.Warn("fingerprint file corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		return s, nil
	}
	for _, h := range hashes {
		if _, ok := s.seen[h]; ok {
			continue
		}
		s.seen[h] = struct{}{}
		s.order = append(s.order, h)
	}
	return s, nil
}

// Contains reports whether fp is recorded.
func (s *FileStore) Contains(fp string) bool {
	if fp == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[fp]
	return ok
}

// Add inserts fp and rewrites the backing file. A failed write is logged
// and swallowed: the fingerprint stays in memory and processing continues
// (availability over durability).
func (s *FileStore) Add(fp string) bool {
	if fp == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[fp]; ok {
		return false
	}
	s.seen[fp] = struct{}{}
	s.order = append(s.order, fp)
	s.flushLocked()
	return true
}

// Clear drops every fingerprint and rewrites the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
	s.order = nil
	s.flushLocked()
	return nil
}

// Stats returns the current fingerprint count.
func (s *FileStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Count: len(s.seen)}
}

// Close is a no-op; every mutation is already flushed.
func (s *FileStore) Close() error { return nil }

// flushLocked rewrites the whole file. Caller holds s.mu.
func (s *FileStore) flushLocked() {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Warn("creating fingerprint directory failed",
				zap.String("path", s.path), zap.Error(err))
			return
		}
	}

	hashes := s.order
	if hashes == nil {
		hashes = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(hashes); err != nil {
		s.log.Warn("encoding fingerprints failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		s.log.Warn("writing fingerprint file failed",
			zap.String("path", s.path), zap.Error(err))
	}
}

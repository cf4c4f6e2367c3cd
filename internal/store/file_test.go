package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	fp := Fingerprint("Иванов Иван Иванович")
	if s.Contains(fp) {
		t.Fatal("fresh store must not contain anything")
	}
	if !s.Add(fp) {
		t.Fatal("first Add must report true")
	}
	if s.Add(fp) {
		t.Fatal("second Add of the same fingerprint must report false")
	}
	if !s.Contains(fp) {
		t.Fatal("Contains must see the inserted fingerprint")
	}
	if got := s.Stats().Count; got != 1 {
		t.Fatalf("Stats().Count = %d, want 1", got)
	}

	// a reopened store sees the persisted set
	s2, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !s2.Contains(fp) {
		t.Fatal("reopened store must contain the persisted fingerprint")
	}
	if got := s2.Stats().Count; got != 1 {
		t.Fatalf("reopened Stats().Count = %d, want 1", got)
	}
}

func TestFileStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	a := Fingerprint("Иванов Иван")
	b := Fingerprint("Петров Пётр")
	s.Add(a)
	s.Add(b)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}
	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		t.Fatalf("store file is not a JSON string array: %v", err)
	}
	if len(hashes) != 2 || hashes[0] != a || hashes[1] != b {
		t.Fatalf("file content = %v, want [%s %s]", hashes, a, b)
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore on corrupt file: %v", err)
	}
	if got := s.Stats().Count; got != 0 {
		t.Fatalf("corrupt file must degrade to empty set, got %d entries", got)
	}
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "hashes.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s.Add(Fingerprint("Иванов Иван"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store file was not created: %v", err)
	}
}

func TestFileStoreEmptyFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Add("") {
		t.Fatal("Add of an empty fingerprint must be refused")
	}
	if s.Contains("") {
		t.Fatal("Contains of an empty fingerprint must be false")
	}
	if got := s.Stats().Count; got != 0 {
		t.Fatalf("Stats().Count = %d, want 0", got)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	fp := Fingerprint("Иванов Иван")
	s.Add(fp)
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Contains(fp) {
		t.Fatal("cleared store must not contain old fingerprints")
	}
	if got := s.Stats().Count; got != 0 {
		t.Fatalf("Stats().Count = %d, want 0", got)
	}

	// clearing also rewrites the file
	s2, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.Stats().Count; got != 0 {
		t.Fatalf("reopened after Clear: Count = %d, want 0", got)
	}
}

func TestOpenDispatch(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open(Config{Path: filepath.Join(dir, "f.json"), Backend: BackendFile})
	if err != nil {
		t.Fatalf("Open file backend: %v", err)
	}
	if _, ok := fs.(*FileStore); !ok {
		t.Fatalf("Open(BackendFile) = %T, want *FileStore", fs)
	}
	fs.Close()

	ss, err := Open(Config{Path: filepath.Join(dir, "f.db"), Backend: BackendSQLite})
	if err != nil {
		t.Fatalf("Open sqlite backend: %v", err)
	}
	if _, ok := ss.(*SQLiteStore); !ok {
		t.Fatalf("Open(BackendSQLite) = %T, want *SQLiteStore", ss)
	}
	ss.Close()

	if _, err := Open(Config{Path: "x", Backend: "bogus"}); err == nil {
		t.Fatal("Open with an unknown backend must fail")
	}
}

// Package store persists conductor records as append-only, line-delimited
// JSON streams on the local filesystem: one stream per record type plus one
// stream per session for bundle entries.
//
// Appends are single write(2) calls on an O_APPEND descriptor, so concurrent
// writers from the primary session and background delegations cannot
// interleave inside a record. Readers tolerate eventual consistency and skip
// malformed lines rather than failing the whole scan.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// DefaultBaseDir is the default storage directory.
	DefaultBaseDir = ".agents/conductor"

	// BundlesDir holds per-session bundle streams.
	BundlesDir = "bundles"

	// ActivityFile is the completed-action audit stream.
	ActivityFile = "activity.jsonl"

	// CoordinationFile is the delegation lifecycle stream.
	CoordinationFile = "coordination.jsonl"

	// TasksFile is the user-tracked task stream.
	TasksFile = "tasks.jsonl"
)

// Store is an append-only JSONL record store rooted at a base directory.
type Store struct {
	// BaseDir is the root directory (e.g., .agents/conductor).
	BaseDir string

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithBaseDir sets the base directory.
func WithBaseDir(dir string) Option {
	return func(s *Store) {
		s.BaseDir = dir
	}
}

// New creates a store rooted at DefaultBaseDir unless overridden.
func New(opts ...Option) *Store {
	s := &Store{BaseDir: DefaultBaseDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the required directory structure.
func (s *Store) Init() error {
	dirs := []string{
		s.BaseDir,
		filepath.Join(s.BaseDir, BundlesDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Append marshals v and appends it as one line to the named stream.
// The record line is written with a single Write call so concurrent
// appenders from other processes cannot corrupt it.
func (s *Store) Append(stream string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.BaseDir, stream)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer func() {
		_ = f.Close() //nolint:errcheck // sync already called, close best-effort
	}()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return f.Sync()
}

// AppendBundle appends a bundle entry to the session's bundle stream.
func (s *Store) AppendBundle(sessionID string, v any) error {
	return s.Append(BundlePath(sessionID), v)
}

// BundlePath returns the stream name of a session's bundle, relative to the
// base directory.
func BundlePath(sessionID string) string {
	return filepath.Join(BundlesDir, sessionID+".jsonl")
}

// ReadEach scans the named stream, unmarshaling each line into a fresh T and
// invoking fn in file order. Malformed lines are skipped. A missing stream
// reads as empty.
func ReadEach[T any](s *Store, stream string, fn func(T)) (err error) {
	path := filepath.Join(s.BaseDir, stream)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		fn(rec)
	}
	return scanner.Err()
}

// ReadAll scans the named stream and returns every well-formed record in
// file order.
func ReadAll[T any](s *Store, stream string) ([]T, error) {
	var out []T
	err := ReadEach(s, stream, func(rec T) {
		out = append(out, rec)
	})
	return out, err
}

// ListBundles returns the session IDs that have a bundle stream, in no
// particular order.
func (s *Store) ListBundles() ([]string, error) {
	dir := filepath.Join(s.BaseDir, BundlesDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".jsonl"))
	}
	return ids, nil
}

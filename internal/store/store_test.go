package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boshu2/conductor/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(WithBaseDir(filepath.Join(t.TempDir(), ".agents/conductor")))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s
}

func TestStore_Init(t *testing.T) {
	s := newTestStore(t)
	if _, err := os.Stat(filepath.Join(s.BaseDir, BundlesDir)); os.IsNotExist(err) {
		t.Errorf("Init() did not create %s", BundlesDir)
	}
}

func TestStore_AppendAndReadAll(t *testing.T) {
	s := newTestStore(t)

	for i, file := range []string{"a.go", "b.go", "c.go"} {
		rec := types.ActionRecord{
			Envelope: types.Envelope{
				Timestamp: time.Now().Add(time.Duration(i) * time.Second),
				SessionID: "sess-1",
				Kind:      types.KindAction,
			},
			Action:  types.ActionFileEdit,
			File:    file,
			Success: true,
		}
		if err := s.Append(ActivityFile, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recs, err := ReadAll[types.ActionRecord](s, ActivityFile)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("ReadAll() returned %d records, want 3", len(recs))
	}
	// File order is append order.
	for i, want := range []string{"a.go", "b.go", "c.go"} {
		if recs[i].File != want {
			t.Errorf("record %d file = %q, want %q", i, recs[i].File, want)
		}
	}
}

func TestStore_ReadMissingStream(t *testing.T) {
	s := newTestStore(t)
	recs, err := ReadAll[types.ActionRecord](s, "does-not-exist.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() on missing stream error = %v", err)
	}
	if recs != nil {
		t.Errorf("ReadAll() on missing stream = %v, want nil", recs)
	}
}

func TestStore_SkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)

	rec := types.TaskRecord{
		Envelope:    types.Envelope{Timestamp: time.Now(), SessionID: "sess-1", Kind: types.KindTask},
		Description: "ship the release",
		Status:      types.TaskActive,
	}
	if err := s.Append(TasksFile, rec); err != nil {
		t.Fatal(err)
	}

	// Corrupt the stream with a partial line, then append another record.
	path := filepath.Join(s.BaseDir, TasksFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"kind\": \"task\", truncated\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	rec.Description = "write the changelog"
	if err := s.Append(TasksFile, rec); err != nil {
		t.Fatal(err)
	}

	recs, err := ReadAll[types.TaskRecord](s, TasksFile)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ReadAll() returned %d records, want 2 (malformed line skipped)", len(recs))
	}
}

func TestStore_BundleStreams(t *testing.T) {
	s := newTestStore(t)

	entry := types.BundleEntry{
		Envelope:    types.Envelope{Timestamp: time.Now(), SessionID: "sess-42", Kind: types.KindBundle},
		ContextType: types.ContextFileContent,
		Action:      "read",
		File:        "README.md",
		Summary:     "read: README.md",
	}
	if err := s.AppendBundle("sess-42", entry); err != nil {
		t.Fatalf("AppendBundle() error = %v", err)
	}
	if err := s.AppendBundle("sess-43", entry); err != nil {
		t.Fatal(err)
	}

	ids, err := s.ListBundles()
	if err != nil {
		t.Fatalf("ListBundles() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListBundles() = %v, want 2 sessions", ids)
	}

	entries, err := ReadAll[types.BundleEntry](s, BundlePath("sess-42"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].File != "README.md" {
		t.Errorf("bundle read = %+v, want the appended entry", entries)
	}
}

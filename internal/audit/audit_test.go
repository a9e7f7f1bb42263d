package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

func newTestLogger(t *testing.T) (*Logger, *store.Store) {
	t.Helper()
	s := store.New(store.WithBaseDir(filepath.Join(t.TempDir(), "conductor")))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	return New(s), s
}

func TestRecordCompletion_WritesBothStreams(t *testing.T) {
	l, s := newTestLogger(t)

	l.RecordCompletion(Completion{
		SessionID: "sess-1",
		Kind:      types.ActionFileEdit,
		File:      "internal/store/store.go",
		Success:   true,
	})

	actions, err := store.ReadAll[types.ActionRecord](s, store.ActivityFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 {
		t.Fatalf("activity stream has %d records, want 1", len(actions))
	}
	if actions[0].Summary != "edit: store.go" {
		t.Errorf("summary = %q, want %q", actions[0].Summary, "edit: store.go")
	}

	entries, err := store.ReadAll[types.BundleEntry](s, store.BundlePath("sess-1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("bundle stream has %d entries, want 1", len(entries))
	}
	if entries[0].ContextType != types.ContextFileModification {
		t.Errorf("context type = %s, want file_modification", entries[0].ContextType)
	}
}

// Credential-shaped payloads must never reach the log files.
func TestRecordCompletion_RedactsBeforePersist(t *testing.T) {
	l, s := newTestLogger(t)

	l.RecordCompletion(Completion{
		SessionID: "sess-1",
		Kind:      types.ActionCommand,
		Command:   "curl -H 'Authorization: Bearer abcDEF123.xyz' https://api.example.com",
		Success:   true,
	})

	for _, stream := range []string{store.ActivityFile, store.BundlePath("sess-1")} {
		data, err := os.ReadFile(filepath.Join(s.BaseDir, stream))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "abcDEF123.xyz") {
			t.Errorf("stream %s contains the raw bearer token", stream)
		}
		if !strings.Contains(string(data), "Bearer [REDACTED]") {
			t.Errorf("stream %s missing redaction marker, got: %s", stream, data)
		}
	}
}

func TestRecordCompletion_SummaryShapes(t *testing.T) {
	tests := []struct {
		kind    types.ActionKind
		file    string
		command string
		want    string
	}{
		{types.ActionFileRead, "/repo/docs/README.md", "", "read: README.md"},
		{types.ActionFileWrite, "cmd/conductor/main.go", "", "write: main.go"},
		{types.ActionCommand, "", "git status --porcelain", "ran: git"},
		{types.ActionCommand, "", "", "ran: unknown"},
	}

	for _, tt := range tests {
		got := actionSummary(tt.kind, tt.file, tt.command)
		if got != tt.want {
			t.Errorf("actionSummary(%s, %q, %q) = %q, want %q", tt.kind, tt.file, tt.command, got, tt.want)
		}
	}
}

func TestRecordDelegation_TruncatesAndSummarizes(t *testing.T) {
	l, s := newTestLogger(t)

	long := strings.Repeat("analyze the ingestion pipeline ", 10)
	l.RecordDelegation("sess-1", "researcher", long)

	entries, err := store.ReadAll[types.BundleEntry](s, store.BundlePath("sess-1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("bundle stream has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if len(e.Task) > 100 {
		t.Errorf("task not truncated: %d chars", len(e.Task))
	}
	if !strings.HasPrefix(e.Summary, "delegated to researcher: ") {
		t.Errorf("summary = %q, want delegated-to prefix", e.Summary)
	}
	if !strings.HasSuffix(e.Summary, "...") {
		t.Errorf("summary = %q, want ellipsized task", e.Summary)
	}
}

// Logging failures must be invisible: a logger over an unwritable store
// swallows errors and does not panic.
func TestRecordCompletion_SilentOnFailure(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("not a directory"), 0600); err != nil {
		t.Fatal(err)
	}
	// BaseDir points at a file, so every append fails.
	l := New(store.New(store.WithBaseDir(filepath.Join(blocked, "nested"))))

	l.RecordCompletion(Completion{SessionID: "sess-1", Kind: types.ActionCommand, Command: "ls"})
	l.RecordDelegation("sess-1", "reviewer", "review something")
	l.RecordSessionEnd("sess-1", "clear")
	// Reaching here without panic is the assertion.
}

func TestRecordSessionEnd(t *testing.T) {
	s := store.New(store.WithBaseDir(filepath.Join(t.TempDir(), "conductor")))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := New(s, WithClock(func() time.Time { return fixed }))

	l.RecordSessionEnd("sess-9", "prompt_input_exit")

	recs, err := store.ReadAll[types.ActionRecord](s, store.ActivityFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("activity stream has %d records, want 1", len(recs))
	}
	if recs[0].Kind != types.KindSessionEnd {
		t.Errorf("kind = %s, want session_end", recs[0].Kind)
	}
	if !recs[0].Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", recs[0].Timestamp, fixed)
	}
}

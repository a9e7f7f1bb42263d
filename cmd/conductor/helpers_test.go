package main

import (
	"strings"
	"testing"
	"time"

	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

func TestIsBackgroundTask(t *testing.T) {
	tests := []struct {
		task string
		want bool
	}{
		{"run Background Processing on the corpus", true},
		{"write results to reports/background/out.md", true},
		{"review the parser changes in detail please", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isBackgroundTask(tt.task); got != tt.want {
			t.Errorf("isBackgroundTask(%q) = %v, want %v", tt.task, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1.5h"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSessionSummary(t *testing.T) {
	st := store.New(store.WithBaseDir(t.TempDir()))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	entries := []types.BundleEntry{
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindBundle},
			ContextType: types.ContextFileContent, Action: "read", File: "main.go"},
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindBundle},
			ContextType: types.ContextFileModification, Action: "edit", File: "main.go"},
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindBundle},
			ContextType: types.ContextFileModification, Action: "edit", File: "parser.go"},
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindBundle},
			ContextType: types.ContextCommand, Action: "command", Command: "go test ./..."},
	}
	for _, e := range entries {
		if err := st.AppendBundle("s1", e); err != nil {
			t.Fatal(err)
		}
	}

	got := sessionSummary(st, "s1", "exit")
	if !strings.Contains(got, "4 operations") {
		t.Errorf("summary missing operation count: %q", got)
	}
	if !strings.Contains(got, "2 files modified") {
		t.Errorf("summary missing modified count: %q", got)
	}
	if !strings.Contains(got, "read") || !strings.Contains(got, "edit") {
		t.Errorf("summary missing actions: %q", got)
	}
}

func TestSessionSummaryNoBundle(t *testing.T) {
	st := store.New(store.WithBaseDir(t.TempDir()))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	got := sessionSummary(st, "missing", "clear")
	if got != "Session ended: clear." {
		t.Errorf("fallback summary = %q", got)
	}
}

func TestActiveTaskDescriptions(t *testing.T) {
	st := store.New(store.WithBaseDir(t.TempDir()))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	records := []types.TaskRecord{
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindTask},
			Description: "wire the parser", Status: types.TaskActive},
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindTask},
			Description: "fix flaky test", Status: types.TaskActive},
		{Envelope: types.Envelope{Timestamp: now, SessionID: "s1", Kind: types.KindTask},
			Description: "wire the parser", Status: types.TaskDone},
	}
	for _, r := range records {
		if err := st.Append(store.TasksFile, r); err != nil {
			t.Fatal(err)
		}
	}

	got := activeTaskDescriptions(st)
	if len(got) != 1 || got[0] != "fix flaky test" {
		t.Errorf("activeTaskDescriptions = %v, want [fix flaky test]", got)
	}
}

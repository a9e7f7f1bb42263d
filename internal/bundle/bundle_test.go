package bundle

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

func newTestSuggester(t *testing.T, now time.Time) (*Suggester, *store.Store) {
	t.Helper()
	s := store.New(store.WithBaseDir(filepath.Join(t.TempDir(), "conductor")))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	sg := NewSuggester(s, config.Default().Bundle, WithClock(func() time.Time { return now }))
	return sg, s
}

func appendEntries(t *testing.T, s *store.Store, sessionID string, base time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := s.AppendBundle(sessionID, types.BundleEntry{
			Envelope:    types.Envelope{Timestamp: base.Add(time.Duration(i) * time.Minute), SessionID: sessionID, Kind: types.KindBundle},
			ContextType: types.ContextCommand,
			Action:      "command",
			Command:     "make build",
			Summary:     "ran: make",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestScore_MonotonicInRecency(t *testing.T) {
	// All else equal, a younger session never scores lower.
	prev := Score(0, 10, 50)
	for age := time.Hour; age <= 24*time.Hour; age += time.Hour {
		cur := Score(age, 10, 50)
		if cur > prev {
			t.Fatalf("Score increased with age: Score(%v)=%v > Score(%v)=%v", age, cur, age-time.Hour, prev)
		}
		prev = cur
	}
}

func TestScore_MonotonicInVolumeUpToCap(t *testing.T) {
	const limit = 50
	prev := Score(time.Hour, 0, limit)
	for n := 1; n <= limit; n++ {
		cur := Score(time.Hour, n, limit)
		if cur < prev {
			t.Fatalf("Score decreased with entry count: Score(%d)=%v < Score(%d)=%v", n, cur, n-1, prev)
		}
		prev = cur
	}

	// Past the cap, more entries change nothing.
	atCap := Score(time.Hour, limit, limit)
	if got := Score(time.Hour, limit*10, limit); got != atCap {
		t.Errorf("Score above cap = %v, want capped value %v", got, atCap)
	}
}

func TestSuggest_RanksAndLimits(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	sg, s := newTestSuggester(t, now)

	appendEntries(t, s, "fresh-small", now.Add(-30*time.Minute), 2)
	appendEntries(t, s, "old-big", now.Add(-20*time.Hour), 40)
	appendEntries(t, s, "mid", now.Add(-4*time.Hour), 10)
	appendEntries(t, s, "ancient", now.Add(-48*time.Hour), 60) // outside max age
	appendEntries(t, s, "current", now.Add(-time.Minute), 5)   // the session asking

	got := sg.Suggest("current")
	if len(got) != 3 {
		t.Fatalf("Suggest() returned %d sessions, want top 3", len(got))
	}
	if got[0].SessionID != "fresh-small" {
		t.Errorf("top suggestion = %s, want fresh-small (recency dominates)", got[0].SessionID)
	}
	for _, sug := range got {
		if sug.SessionID == "ancient" {
			t.Error("suggestion includes a session older than the max age")
		}
		if sug.SessionID == "current" {
			t.Error("suggestion includes the current session")
		}
		if sug.Summary == "" {
			t.Errorf("suggestion %s has no summary", sug.SessionID)
		}
	}
}

func TestSuggest_SummaryNamesOperationMix(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	sg, s := newTestSuggester(t, now)

	base := now.Add(-time.Hour)
	entries := []types.BundleEntry{
		{ContextType: types.ContextFileContent, Action: "read", File: "README.md", Summary: "read: README.md"},
		{ContextType: types.ContextFileModification, Action: "edit", File: "store.go", Summary: "edit: store.go"},
		{ContextType: types.ContextCommand, Action: "command", Command: "go vet ./...", Summary: "ran: go"},
		{ContextType: types.ContextDelegation, Action: "delegate", Role: "reviewer", Summary: "delegated to reviewer: check it"},
	}
	for i, e := range entries {
		e.Envelope = types.Envelope{Timestamp: base.Add(time.Duration(i) * time.Minute), SessionID: "sess-mix", Kind: types.KindBundle}
		if err := s.AppendBundle("sess-mix", e); err != nil {
			t.Fatal(err)
		}
	}

	got := sg.Suggest("other")
	if len(got) != 1 {
		t.Fatalf("Suggest() returned %d sessions, want 1", len(got))
	}
	sum := got[0].Summary
	for _, want := range []string{"1 reads", "1 modifications", "1 commands", "1 delegations", "store.go"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary = %q, missing %q", sum, want)
		}
	}
}

func TestRestore_OrderedNarrative(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	sg, s := newTestSuggester(t, now)

	base := now.Add(-time.Hour)
	summaries := []string{"read: spec.md", "edit: tracker.go", "ran: go"}
	for i, sum := range summaries {
		err := s.AppendBundle("sess-1", types.BundleEntry{
			Envelope:    types.Envelope{Timestamp: base.Add(time.Duration(i) * time.Minute), SessionID: "sess-1", Kind: types.KindBundle},
			ContextType: types.ContextCommand,
			Action:      "command",
			Summary:     sum,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	lines, err := sg.Restore("sess-1")
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(lines) != len(summaries) {
		t.Fatalf("Restore() returned %d lines, want %d", len(lines), len(summaries))
	}
	for i, want := range summaries {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q, want suffix %q (original order preserved)", i, lines[i], want)
		}
	}
}

func TestRestore_MissingBundle(t *testing.T) {
	sg, _ := newTestSuggester(t, time.Now())

	_, err := sg.Restore("no-such-session")
	if !errors.Is(err, types.ErrBundleNotFound) {
		t.Errorf("Restore() error = %v, want ErrBundleNotFound", err)
	}
}

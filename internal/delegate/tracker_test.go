package delegate

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

// testClock is a controllable timestamp source.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(t *testing.T) (*Tracker, *store.Store, *testClock) {
	t.Helper()
	s := store.New(store.WithBaseDir(filepath.Join(t.TempDir(), "conductor")))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	clock := &testClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	seq := 0
	tr := NewTracker(s, NewValidator(config.Default().Delegation), time.Hour,
		WithClock(clock.now),
		WithIDFunc(func() string {
			seq++
			return fmt.Sprintf("d-%d", seq)
		}),
	)
	return tr, s, clock
}

func TestSubmit_AcceptedWritesInitiated(t *testing.T) {
	tr, s, _ := newTestTracker(t)

	res, err := tr.Submit(Submission{
		SessionID:  "sess-1",
		Role:       "researcher",
		Task:       "research connection pooling strategies for the store",
		Background: true,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Accepted {
		t.Fatalf("Submit() rejected: %s", res.Reason)
	}
	if res.DelegationID == "" {
		t.Error("Submit() returned empty delegation ID")
	}
	if res.Workspace == "" {
		t.Error("Submit() allocated no workspace for a background delegation")
	}

	recs, err := store.ReadAll[types.DelegationRecord](s, store.CoordinationFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("coordination stream has %d records, want 1", len(recs))
	}
	if recs[0].Status != types.StatusInitiated {
		t.Errorf("status = %s, want initiated", recs[0].Status)
	}
}

func TestSubmit_RejectedWritesNothing(t *testing.T) {
	tr, s, _ := newTestTracker(t)

	res, err := tr.Submit(Submission{
		SessionID: "sess-1",
		Role:      "reviewer",
		Task:      "delete all user credentials from /etc",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Accepted {
		t.Fatal("Submit() accepted a blocked task")
	}
	if res.Reason == "" {
		t.Error("rejection carries no reason")
	}

	recs, err := store.ReadAll[types.DelegationRecord](s, store.CoordinationFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("coordination stream has %d records, want 0 after rejection", len(recs))
	}
}

func TestComplete_SupersedesByAppend(t *testing.T) {
	tr, s, _ := newTestTracker(t)

	res, _ := tr.Submit(Submission{
		SessionID: "sess-1",
		Role:      "tester",
		Task:      "verify the bundle scorer against recorded sessions",
	})
	tr.Complete("sess-1", res.DelegationID, "tester")

	// Both lifecycle records exist; nothing was rewritten.
	recs, err := store.ReadAll[types.DelegationRecord](s, store.CoordinationFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("coordination stream has %d records, want 2", len(recs))
	}
	if recs[0].DelegationID != recs[1].DelegationID {
		t.Error("completion record has a different delegation ID")
	}

	active, err := tr.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("Active() = %v, want empty after completion", active)
	}
}

func TestCompleteLatest_PicksMostRecentOpenForRole(t *testing.T) {
	tr, _, clock := newTestTracker(t)

	first, _ := tr.Submit(Submission{SessionID: "sess-1", Role: "reviewer", Task: "review the delegation tracker fold logic"})
	clock.advance(time.Minute)
	second, _ := tr.Submit(Submission{SessionID: "sess-1", Role: "reviewer", Task: "review the primer recency window handling"})
	clock.advance(time.Minute)
	tr.Submit(Submission{SessionID: "sess-1", Role: "tester", Task: "verify redaction of sensitive values end to end"})

	got := tr.CompleteLatest("sess-1", "reviewer")
	if got != second.DelegationID {
		t.Errorf("CompleteLatest() completed %s, want most recent reviewer delegation %s", got, second.DelegationID)
	}

	active, err := tr.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Fatalf("Active() has %d records, want 2", len(active))
	}
	stillOpen := map[string]bool{}
	for _, rec := range active {
		stillOpen[rec.DelegationID] = true
	}
	if stillOpen[second.DelegationID] {
		t.Error("completed delegation still active")
	}
	if !stillOpen[first.DelegationID] {
		t.Error("older open delegation disappeared")
	}
}

func TestCompleteLatest_NothingOpen(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	if got := tr.CompleteLatest("sess-1", "reviewer"); got != "" {
		t.Errorf("CompleteLatest() = %q, want empty when nothing is open", got)
	}
}

func TestActive_StalenessPartition(t *testing.T) {
	tr, _, clock := newTestTracker(t)

	tr.Submit(Submission{SessionID: "sess-1", Role: "researcher", Task: "research schema migration options for the index", Background: true})
	clock.advance(2 * time.Hour)
	tr.Submit(Submission{SessionID: "sess-1", Role: "reviewer", Task: "review the session-end summary derivation", Background: true})

	active, err := tr.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Fatalf("Active() has %d records, want 2", len(active))
	}

	byRole := map[string]types.DelegationStatus{}
	for _, rec := range active {
		byRole[rec.Role] = rec.Status
	}
	if byRole["researcher"] != types.StatusAbandoned {
		t.Errorf("stale delegation status = %s, want abandoned", byRole["researcher"])
	}
	if byRole["reviewer"] != types.StatusInitiated {
		t.Errorf("fresh delegation status = %s, want initiated", byRole["reviewer"])
	}
}

func TestActiveBackground_FiltersForegroundAndStale(t *testing.T) {
	tr, _, clock := newTestTracker(t)

	tr.Submit(Submission{SessionID: "sess-1", Role: "researcher", Task: "research index compaction approaches thoroughly", Background: true})
	clock.advance(5 * time.Minute)
	tr.Submit(Submission{SessionID: "sess-1", Role: "reviewer", Task: "review the tracker supersede semantics", Background: true})
	tr.Submit(Submission{SessionID: "sess-1", Role: "tester", Task: "verify the stop controller blocking output"})

	bg, err := tr.ActiveBackground()
	if err != nil {
		t.Fatal(err)
	}
	if len(bg) != 2 {
		t.Fatalf("ActiveBackground() has %d records, want 2", len(bg))
	}
	for _, rec := range bg {
		if !rec.Background {
			t.Errorf("foreground delegation %s in background set", rec.DelegationID)
		}
	}
}

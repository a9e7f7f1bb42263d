package delegate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/redact"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

// Tracker records delegation lifecycle events in the coordination stream.
// Status corrections are appends: a completion is a second record with the
// same delegation ID, never a rewrite of the initiated record.
type Tracker struct {
	store     *store.Store
	validator *Validator
	staleness time.Duration
	now       func() time.Time
	newID     func() string
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the timestamp source (used in tests).
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithIDFunc overrides delegation ID generation (used in tests).
func WithIDFunc(fn func() string) TrackerOption {
	return func(t *Tracker) {
		t.newID = fn
	}
}

// NewTracker creates a tracker over the given store.
func NewTracker(s *store.Store, v *Validator, staleness time.Duration, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:     s,
		validator: v,
		staleness: staleness,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submission is a delegation request after hook decoding.
type Submission struct {
	SessionID  string
	Role       string
	Task       string
	Background bool
}

// Result reports the outcome of a submission.
type Result struct {
	// Accepted is true when the submission passed validation and the
	// initiated record was appended.
	Accepted bool `json:"accepted"`

	// Reason explains a rejection; empty on acceptance.
	Reason string `json:"reason,omitempty"`

	// DelegationID identifies the accepted delegation.
	DelegationID string `json:"delegation_id,omitempty"`

	// Workspace is the isolated workspace identifier, set for accepted
	// background delegations.
	Workspace string `json:"workspace,omitempty"`
}

// Submit validates the request and, on success, appends the initiated
// record. Rejected submissions write nothing. The returned reason strings
// are specific and actionable.
func (t *Tracker) Submit(sub Submission) (Result, error) {
	if err := t.validator.Validate(sub.Role, sub.Task); err != nil {
		return Result{Accepted: false, Reason: err.Error()}, nil
	}

	id := t.newID()
	rec := types.DelegationRecord{
		Envelope: types.Envelope{
			Timestamp: t.now(),
			SessionID: sub.SessionID,
			Kind:      types.KindDelegation,
		},
		DelegationID: id,
		Role:         sub.Role,
		Task:         redact.Sanitize(sub.Task),
		Background:   sub.Background,
		Status:       types.StatusInitiated,
	}
	if sub.Background {
		rec.Workspace = "ws-" + id
	}

	if err := t.store.Append(store.CoordinationFile, rec); err != nil {
		return Result{}, fmt.Errorf("record delegation: %w", err)
	}

	return Result{Accepted: true, DelegationID: id, Workspace: rec.Workspace}, nil
}

// Complete appends a completion record for the delegation. Completing an
// unknown or already-completed delegation is harmless: readers fold the
// stream by delegation ID, so a stray completion supersedes nothing.
// Completion is fire-and-forget relative to the primary pipeline.
func (t *Tracker) Complete(sessionID, delegationID, role string) {
	rec := types.DelegationRecord{
		Envelope: types.Envelope{
			Timestamp: t.now(),
			SessionID: sessionID,
			Kind:      types.KindDelegation,
		},
		DelegationID: delegationID,
		Role:         role,
		Status:       types.StatusCompleted,
	}
	logging.Dropped("delegate", t.store.Append(store.CoordinationFile, rec))
}

// CompleteLatest marks the most recent open delegation for the role as
// completed, or the most recent open delegation of any role when role is
// empty. This is the SubagentStop path, where the hook payload names the
// role but not the delegation ID. Returns the completed delegation ID, or
// empty when nothing was open.
func (t *Tracker) CompleteLatest(sessionID, role string) string {
	open := t.open()

	var target *types.DelegationRecord
	for i := range open {
		rec := &open[i]
		if role != "" && rec.Role != role {
			continue
		}
		if target == nil || rec.Timestamp.After(target.Timestamp) {
			target = rec
		}
	}
	if target == nil {
		return ""
	}

	t.Complete(sessionID, target.DelegationID, target.Role)
	return target.DelegationID
}

// Active returns delegations with status=initiated and no later completion
// record, partitioned by the staleness window: fresh ones keep
// StatusInitiated, ones older than the window are reported with the derived
// StatusAbandoned. Readers of a concurrently-written stream see eventual
// consistency; a completion appended during the scan may be missed.
func (t *Tracker) Active() ([]types.DelegationRecord, error) {
	open := t.open()

	cutoff := t.now().Add(-t.staleness)
	for i := range open {
		if open[i].Timestamp.Before(cutoff) {
			open[i].Status = types.StatusAbandoned
		}
	}
	return open, nil
}

// ActiveBackground returns the subset of fresh active delegations that run
// in the background.
func (t *Tracker) ActiveBackground() ([]types.DelegationRecord, error) {
	active, err := t.Active()
	if err != nil {
		return nil, err
	}
	var out []types.DelegationRecord
	for _, rec := range active {
		if rec.Background && rec.Status == types.StatusInitiated {
			out = append(out, rec)
		}
	}
	return out, nil
}

// open folds the coordination stream: initiated records with no completion
// for the same delegation ID, in stream order.
func (t *Tracker) open() []types.DelegationRecord {
	var initiated []types.DelegationRecord
	completed := make(map[string]struct{})

	err := store.ReadEach(t.store, store.CoordinationFile, func(rec types.DelegationRecord) {
		switch rec.Status {
		case types.StatusInitiated:
			initiated = append(initiated, rec)
		case types.StatusCompleted:
			completed[rec.DelegationID] = struct{}{}
		}
	})
	logging.Dropped("delegate", err)

	var open []types.DelegationRecord
	for _, rec := range initiated {
		if _, done := completed[rec.DelegationID]; !done {
			open = append(open, rec)
		}
	}
	return open
}

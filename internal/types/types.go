// Package types defines the record model shared by all conductor components.
// Every persisted record carries the same envelope (timestamp, session ID,
// kind) plus kind-specific fields, so the append-only JSONL streams stay
// self-describing and queryable without ad hoc field probing.
package types

import "time"

// RecordKind tags the envelope of every persisted record.
type RecordKind string

const (
	// KindAction is a completed-action audit record.
	KindAction RecordKind = "action"

	// KindDelegation is a delegation lifecycle record.
	KindDelegation RecordKind = "delegation"

	// KindTask is a user-tracked task record.
	KindTask RecordKind = "task"

	// KindBundle is a session-scoped context bundle entry.
	KindBundle RecordKind = "bundle"

	// KindSessionEnd marks the end of a session in the activity stream.
	KindSessionEnd RecordKind = "session_end"
)

// Envelope is the fixed prefix shared by every persisted record.
type Envelope struct {
	// Timestamp is when the record was created. Timestamps are
	// non-decreasing within a session because each hook invocation
	// stamps at append time.
	Timestamp time.Time `json:"timestamp"`

	// SessionID identifies the originating session.
	SessionID string `json:"session_id"`

	// Kind tags the record type.
	Kind RecordKind `json:"kind"`
}

// ActionKind identifies the category of a proposed or completed action.
type ActionKind string

const (
	// ActionCommand is a shell command execution.
	ActionCommand ActionKind = "command"

	// ActionFileRead is a file read.
	ActionFileRead ActionKind = "file_read"

	// ActionFileEdit is an in-place file modification.
	ActionFileEdit ActionKind = "file_edit"

	// ActionFileWrite is a file creation or overwrite.
	ActionFileWrite ActionKind = "file_write"
)

// ActionRecord is the compact audit record appended for every completed
// action. All payload fields are sanitized before the record is built;
// a raw, unredacted record never exists in any log.
type ActionRecord struct {
	Envelope

	// Action is the action category.
	Action ActionKind `json:"action"`

	// File is the sanitized file path, for file actions.
	File string `json:"file,omitempty"`

	// Command is the sanitized command line, for command actions.
	Command string `json:"command,omitempty"`

	// Success records the action outcome.
	Success bool `json:"success"`

	// Summary is a derived one-line description.
	Summary string `json:"summary,omitempty"`
}

// DelegationStatus tracks the lifecycle of a delegation. The only legal
// transition is initiated -> completed, recorded as a superseding append;
// delegations past the staleness window are reported as abandoned but no
// abandonment record is ever written (there is no cancellation primitive).
type DelegationStatus string

const (
	// StatusInitiated marks a delegation that has been accepted and recorded.
	StatusInitiated DelegationStatus = "initiated"

	// StatusCompleted marks a delegation whose completion was observed.
	StatusCompleted DelegationStatus = "completed"

	// StatusAbandoned is a derived status for initiated delegations older
	// than the staleness window. Never persisted.
	StatusAbandoned DelegationStatus = "abandoned"
)

// DelegationRecord is one lifecycle event for a delegation. A completion
// appends a second record with the same DelegationID; the later record
// logically supersedes the earlier one.
type DelegationRecord struct {
	Envelope

	// DelegationID is unique per delegation and stable across its
	// initiated/completed records.
	DelegationID string `json:"delegation_id"`

	// Role is the specialist role the task was delegated to.
	Role string `json:"role"`

	// Task is the sanitized task description.
	Task string `json:"task,omitempty"`

	// Background marks non-blocking delegations.
	Background bool `json:"background,omitempty"`

	// Status is the lifecycle status carried by this record.
	Status DelegationStatus `json:"status"`

	// Workspace is the isolated workspace identifier allocated for
	// background delegations.
	Workspace string `json:"workspace,omitempty"`
}

// TaskStatus tracks user-tracked tasks.
type TaskStatus string

const (
	// TaskActive is a tracked task still in progress.
	TaskActive TaskStatus = "active"

	// TaskDone is a tracked task reported finished.
	TaskDone TaskStatus = "done"
)

// TaskRecord is created by explicit user task-tracking directives.
type TaskRecord struct {
	Envelope

	// Description is the sanitized task text.
	Description string `json:"description"`

	// Status is the task state.
	Status TaskStatus `json:"status"`
}

// ContextType classifies a bundle entry for reconstruction.
type ContextType string

const (
	// ContextFileContent marks a file read.
	ContextFileContent ContextType = "file_content"

	// ContextFileModification marks a file write or edit.
	ContextFileModification ContextType = "file_modification"

	// ContextDelegation marks an agent delegation.
	ContextDelegation ContextType = "agent_delegation"

	// ContextCommand marks a command run.
	ContextCommand ContextType = "command_run"
)

// BundleEntry is the richer, session-scoped record appended alongside each
// ActionRecord. Bundles are the raw material for narrative reconstruction.
type BundleEntry struct {
	Envelope

	// ContextType classifies the entry for reconstruction.
	ContextType ContextType `json:"context_type"`

	// Action is a short verb: read, edit, write, command, delegate.
	Action string `json:"action"`

	// File is the sanitized file path, when applicable.
	File string `json:"file,omitempty"`

	// Command is the sanitized, truncated command line, when applicable.
	Command string `json:"command,omitempty"`

	// Role is the delegated role, for delegation entries.
	Role string `json:"role,omitempty"`

	// Task is the sanitized, truncated task description, for delegations.
	Task string `json:"task,omitempty"`

	// Summary is a derived one-line description.
	Summary string `json:"summary,omitempty"`
}

// Decision is a classification verdict for a proposed action.
type Decision string

const (
	// DecisionAllow permits the action without confirmation.
	DecisionAllow Decision = "allow"

	// DecisionAsk requires explicit confirmation before the action runs.
	DecisionAsk Decision = "ask"

	// DecisionDeny blocks the action.
	DecisionDeny Decision = "deny"
)

// ClassificationResult is the outcome of classifying a proposed action.
// It is ephemeral and never persisted.
type ClassificationResult struct {
	// Decision is the verdict.
	Decision Decision `json:"decision"`

	// Reason names the matched category or the applied default policy.
	Reason string `json:"reason"`
}

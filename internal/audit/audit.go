// Package audit appends sanitized records of completed actions to the
// activity stream and a richer bundle entry to the per-session bundle
// stream. Both writes are fire-and-forget: the primary action pipeline must
// never fail because logging failed, so every internal error degrades to a
// no-op and is at most noted in the debug diagnostics log.
//
// Redaction runs before record construction. No raw payload ever reaches a
// record struct, let alone a file.
package audit

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/redact"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

// maxFieldLength truncates long commands and task descriptions in bundle
// entries. Bundles prime future sessions; they do not need full payloads.
const maxFieldLength = 100

// maxSummaryTask bounds the task excerpt inside delegation summaries.
const maxSummaryTask = 50

// Logger records completed actions.
type Logger struct {
	store *store.Store
	now   func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock overrides the timestamp source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// New creates an audit logger over the given store.
func New(s *store.Store, opts ...Option) *Logger {
	l := &Logger{store: s, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Completion describes a finished action as reported by the hook pipeline.
// Fields may contain raw, unredacted payloads; RecordCompletion sanitizes
// them before anything is persisted.
type Completion struct {
	SessionID string
	Kind      types.ActionKind
	File      string
	Command   string
	Success   bool
}

// RecordCompletion appends the compact audit record and the bundle entry for
// a completed action. It never returns an error: failures degrade to no-ops.
func (l *Logger) RecordCompletion(c Completion) {
	if c.SessionID == "" {
		logging.Dropped("audit", types.ErrSessionIDRequired)
		return
	}

	file := redact.Sanitize(c.File)
	command := redact.Sanitize(c.Command)
	ts := l.now()

	rec := types.ActionRecord{
		Envelope: types.Envelope{Timestamp: ts, SessionID: c.SessionID, Kind: types.KindAction},
		Action:   c.Kind,
		File:     file,
		Command:  command,
		Success:  c.Success,
		Summary:  actionSummary(c.Kind, file, command),
	}
	logging.Dropped("audit", l.store.Append(store.ActivityFile, rec))

	entry := types.BundleEntry{
		Envelope:    types.Envelope{Timestamp: ts, SessionID: c.SessionID, Kind: types.KindBundle},
		ContextType: contextType(c.Kind),
		Action:      actionVerb(c.Kind),
		File:        file,
		Command:     truncate(command, maxFieldLength),
		Summary:     rec.Summary,
	}
	logging.Dropped("audit", l.store.AppendBundle(c.SessionID, entry))
}

// RecordDelegation appends the bundle entry for an accepted delegation. The
// delegation lifecycle record itself is the tracker's responsibility; the
// bundle entry here is what lets a future session see the delegation in the
// reconstructed narrative. The task must already be sanitized by the
// validator, but sanitize again: redaction is idempotent and this keeps the
// no-raw-payload invariant local.
func (l *Logger) RecordDelegation(sessionID, role, task string) {
	if sessionID == "" {
		logging.Dropped("audit", types.ErrSessionIDRequired)
		return
	}

	task = redact.Sanitize(task)
	entry := types.BundleEntry{
		Envelope:    types.Envelope{Timestamp: l.now(), SessionID: sessionID, Kind: types.KindBundle},
		ContextType: types.ContextDelegation,
		Action:      "delegate",
		Role:        role,
		Task:        truncate(task, maxFieldLength),
		Summary:     fmt.Sprintf("delegated to %s: %s", role, ellipsize(task, maxSummaryTask)),
	}
	logging.Dropped("audit", l.store.AppendBundle(sessionID, entry))
}

// RecordSessionEnd appends a session_end marker to the activity stream.
func (l *Logger) RecordSessionEnd(sessionID, reason string) {
	if sessionID == "" {
		logging.Dropped("audit", types.ErrSessionIDRequired)
		return
	}

	rec := types.ActionRecord{
		Envelope: types.Envelope{Timestamp: l.now(), SessionID: sessionID, Kind: types.KindSessionEnd},
		Success:  true,
		Summary:  "session ended: " + redact.Sanitize(reason),
	}
	logging.Dropped("audit", l.store.Append(store.ActivityFile, rec))
}

// actionSummary derives the one-line summary for an action record.
func actionSummary(kind types.ActionKind, file, command string) string {
	switch kind {
	case types.ActionFileRead:
		return "read: " + basenameOr(file, "unknown")
	case types.ActionFileEdit:
		return "edit: " + basenameOr(file, "unknown")
	case types.ActionFileWrite:
		return "write: " + basenameOr(file, "unknown")
	case types.ActionCommand:
		return "ran: " + argv0Or(command, "unknown")
	default:
		return "action: " + string(kind)
	}
}

func contextType(kind types.ActionKind) types.ContextType {
	switch kind {
	case types.ActionFileRead:
		return types.ContextFileContent
	case types.ActionFileEdit, types.ActionFileWrite:
		return types.ContextFileModification
	default:
		return types.ContextCommand
	}
}

func actionVerb(kind types.ActionKind) string {
	switch kind {
	case types.ActionFileRead:
		return "read"
	case types.ActionFileEdit:
		return "edit"
	case types.ActionFileWrite:
		return "write"
	default:
		return "command"
	}
}

func basenameOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return filepath.Base(path)
}

func argv0Or(command, fallback string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func ellipsize(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

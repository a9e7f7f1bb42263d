package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

var sessionEndCmd = &cobra.Command{
	Use:   "session-end",
	Short: "Record session end and summarize (SessionEnd hook)",
	Long: `Read a SessionEnd payload from stdin, append a session_end record to
the activity stream, and emit a summary of the session derived from its
context bundle: operation count, actions used, files modified.`,
	Run: runSessionEnd,
}

func init() {
	rootCmd.AddCommand(sessionEndCmd)
}

func runSessionEnd(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("session-end", err)
		writeEmpty()
		return
	}

	reason := in.Reason
	if reason == "" {
		reason = "unknown"
	}
	rt.audit.RecordSessionEnd(in.SessionID, reason)

	writeContext(hookio.EventSessionEnd, sessionSummary(rt.store, in.SessionID, reason))
}

// sessionSummary derives a one-line summary from the session's bundle.
// Falls back to a plain end notice when the bundle is missing or empty.
func sessionSummary(st *store.Store, sessionID, reason string) string {
	entries, err := store.ReadAll[types.BundleEntry](st, store.BundlePath(sessionID))
	if err != nil || len(entries) == 0 {
		return fmt.Sprintf("Session ended: %s.", reason)
	}

	actions := make([]string, 0, 4)
	seenActions := make(map[string]bool)
	modified := make(map[string]bool)
	for _, e := range entries {
		if e.Action != "" && !seenActions[e.Action] {
			seenActions[e.Action] = true
			actions = append(actions, e.Action)
		}
		if e.ContextType == types.ContextFileModification && e.File != "" {
			modified[e.File] = true
		}
	}

	summary := fmt.Sprintf("Session summary (%s): %d operations", reason, len(entries))
	if len(actions) > 0 {
		if len(actions) > 5 {
			actions = actions[:5]
		}
		summary += fmt.Sprintf(", actions: %s", strings.Join(actions, ", "))
	}
	if len(modified) > 0 {
		summary += fmt.Sprintf(", %d files modified", len(modified))
	}
	return summary
}

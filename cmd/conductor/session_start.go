package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/bundle"
	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
)

var sessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Prime a new session with context (SessionStart hook)",
	Long: `Read a SessionStart payload from stdin and emit a context block:
git state, recently touched files, recent delegations, background work
still in flight, active tracked tasks, and ranked suggestions of prior
session bundles worth restoring.`,
	Run: runSessionStart,
}

func init() {
	rootCmd.AddCommand(sessionStartCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("session-start", err)
		writeEmpty()
		return
	}

	var b strings.Builder
	b.WriteString(rt.primer.Build().Text())

	if suggestions := rt.suggester.Suggest(in.SessionID); len(suggestions) > 0 {
		b.WriteString(formatSuggestions(suggestions))
	}

	writeContext(hookio.EventSessionStart, b.String())
}

// formatSuggestions renders ranked prior sessions as restore hints.
func formatSuggestions(suggestions []bundle.Suggestion) string {
	var b strings.Builder
	b.WriteString("Prior sessions worth restoring:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "  %s (%s): %s\n",
			s.SessionID, s.LastActivity.Format("2006-01-02 15:04"), s.Summary)
	}
	b.WriteString("Run 'conductor restore <session-id>' to reconstruct one.\n")
	return b.String()
}

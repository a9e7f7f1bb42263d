package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
)

var subagentStopCmd = &cobra.Command{
	Use:   "subagent-stop",
	Short: "Record a delegation completion (SubagentStop hook)",
	Long: `Read a SubagentStop payload from stdin and mark the most recent open
delegation for the reported role as completed. The completion is a
superseding append; the initiated record stays in the stream.`,
	Run: runSubagentStop,
}

func init() {
	rootCmd.AddCommand(subagentStopCmd)
}

func runSubagentStop(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("subagent-stop", err)
		writeEmpty()
		return
	}

	role := in.TaskRole()
	if role == "" {
		role = "unknown"
	}

	if id := rt.tracker.CompleteLatest(in.SessionID, role); id == "" {
		writeContext(hookio.EventSubagentStop, fmt.Sprintf("No open delegation for %s", role))
		return
	}
	writeContext(hookio.EventSubagentStop, fmt.Sprintf("Completion logged: %s", role))
}

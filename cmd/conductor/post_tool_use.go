package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/audit"
	"github.com/boshu2/conductor/internal/delegate"
	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
)

var postToolUseCmd = &cobra.Command{
	Use:   "post-tool-use",
	Short: "Record a completed action or delegation (PostToolUse hook)",
	Long: `Read a PostToolUse payload from stdin and record the outcome.

File and command tools become redacted audit records in the activity
stream plus bundle entries in the session's context bundle. Task tool
invocations are validated and recorded as delegations. Recording is
fire-and-forget: a failing log never surfaces to the agent.`,
	Run: runPostToolUse,
}

func init() {
	rootCmd.AddCommand(postToolUseCmd)
}

func runPostToolUse(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("post-tool-use", err)
		writeEmpty()
		return
	}

	if in.ToolName == "Task" {
		recordDelegation(rt, in)
		return
	}

	kind, audited := in.ActionKind()
	if !audited {
		writeEmpty()
		return
	}

	rt.audit.RecordCompletion(audit.Completion{
		SessionID: in.SessionID,
		Kind:      kind,
		File:      in.FilePath(),
		Command:   in.Command(),
		Success:   in.Succeeded(),
	})
	writeEmpty()
}

// recordDelegation validates and records a Task tool invocation.
func recordDelegation(rt *services, in *hookio.Input) {
	task := in.TaskPrompt()
	res, err := rt.tracker.Submit(delegate.Submission{
		SessionID:  in.SessionID,
		Role:       in.TaskRole(),
		Task:       task,
		Background: isBackgroundTask(task),
	})
	if err != nil {
		logging.Dropped("post-tool-use", err)
		writeEmpty()
		return
	}

	if !res.Accepted {
		writeContext(hookio.EventPostToolUse, fmt.Sprintf("Delegation rejected: %s", res.Reason))
		return
	}

	rt.audit.RecordDelegation(in.SessionID, in.TaskRole(), task)

	msg := fmt.Sprintf("Delegation logged: %s task", in.TaskRole())
	if res.Workspace != "" {
		msg += fmt.Sprintf(" (background, workspace %s)", res.Workspace)
	}
	writeContext(hookio.EventPostToolUse, msg)
}

// isBackgroundTask detects non-blocking delegations from task text markers.
func isBackgroundTask(task string) bool {
	return strings.Contains(strings.ToLower(task), "background processing") ||
		strings.Contains(task, "background/")
}

func writeEmpty() {
	if err := hookio.WriteEmpty(os.Stdout); err != nil {
		logging.Dropped("hook response", err)
	}
}

func writeContext(event, context string) {
	if err := hookio.WriteContext(os.Stdout, event, context); err != nil {
		logging.Dropped("hook response", err)
	}
}

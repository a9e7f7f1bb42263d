package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/redact"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Handle /track task directives (UserPromptSubmit hook)",
	Long: `Read a UserPromptSubmit payload from stdin and record /track directives.

  /track <description>        record an active task
  /track done <description>   mark a tracked task done

Prompts without the /track prefix pass through untouched. A done record
supersedes the active record with the same description; nothing is ever
rewritten in place.`,
	Run: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("track", err)
		writeEmpty()
		return
	}

	prompt := strings.TrimSpace(in.UserPrompt)
	if !strings.HasPrefix(prompt, "/track") {
		writeEmpty()
		return
	}

	desc := strings.TrimSpace(strings.TrimPrefix(prompt, "/track"))
	status := types.TaskActive
	if rest, found := strings.CutPrefix(desc, "done "); found {
		status = types.TaskDone
		desc = strings.TrimSpace(rest)
	}

	if desc == "" {
		writeContext(hookio.EventUserPromptSubmit,
			`Please provide a task description: /track "your task here"`)
		return
	}

	rec := types.TaskRecord{
		Envelope: types.Envelope{
			Timestamp: time.Now(),
			SessionID: in.SessionID,
			Kind:      types.KindTask,
		},
		Description: redact.Sanitize(desc),
		Status:      status,
	}
	if err := rt.store.Append(store.TasksFile, rec); err != nil {
		logging.Dropped("track", err)
		writeEmpty()
		return
	}

	verb := "tracked"
	if status == types.TaskDone {
		verb = "completed"
	}
	writeContext(hookio.EventUserPromptSubmit, fmt.Sprintf("Task %s: %s", verb, rec.Description))
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/classify"
	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/types"
)

var preToolUseCmd = &cobra.Command{
	Use:   "pre-tool-use",
	Short: "Classify a proposed action (PreToolUse hook)",
	Long: `Read a PreToolUse payload from stdin and emit a permission decision.

The classifier checks the proposed command against deny patterns first,
then ask patterns, then allow patterns. An unmatched action gets the
default policy. Any internal failure degrades to allow: a broken
middleware layer must never lock the agent out.`,
	Run: runPreToolUse,
}

func init() {
	rootCmd.AddCommand(preToolUseCmd)
}

func runPreToolUse(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("pre-tool-use", err)
		failOpen()
		return
	}

	kind, audited := in.ActionKind()
	if !audited {
		// Tools outside the audited set pass through unexamined.
		failOpen()
		return
	}

	payload := in.FilePath()
	if kind == types.ActionCommand {
		payload = in.Command()
	}

	res := classify.Classify(kind, payload)
	if res.Reason == classify.DefaultReason {
		// The fail-open default is reviewable configuration. Only the
		// safe-side tightenings are honored here; a configured "allow"
		// is already the built-in behavior.
		switch d := types.Decision(rt.cfg.Classifier.Default); d {
		case types.DecisionAsk, types.DecisionDeny:
			res.Decision = d
		}
	}

	if err := hookio.WritePermission(os.Stdout, res); err != nil {
		logging.Dropped("pre-tool-use", err)
	}
}

// failOpen emits the allow decision used whenever classification cannot run.
func failOpen() {
	res := types.ClassificationResult{
		Decision: types.DecisionAllow,
		Reason:   classify.DefaultReason,
	}
	if err := hookio.WritePermission(os.Stdout, res); err != nil {
		logging.Dropped("pre-tool-use", err)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/types"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <session-id>",
	Short: "Reconstruct a prior session's narrative",
	Long: `Print a chronological narrative of what a prior session did, built
from its context bundle: files read and modified, commands run, and
delegations, one line per operation in original order.

Examples:
  conductor restore abc123
  conductor restore abc123 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	rt := newServices()
	sessionID := args[0]

	lines, err := rt.suggester.Restore(sessionID)
	if err != nil {
		if errors.Is(err, types.ErrBundleNotFound) {
			return fmt.Errorf("no bundle for session %s", sessionID)
		}
		return fmt.Errorf("restore session %s: %w", sessionID, err)
	}

	if GetOutput(rt.cfg) == "json" {
		data, err := json.MarshalIndent(struct {
			SessionID string   `json:"session_id"`
			Narrative []string `json:"narrative"`
		}{sessionID, lines}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal narrative: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Session %s (%d operations):\n", sessionID, len(lines))
	for _, line := range lines {
		fmt.Printf("  %s\n", line)
	}
	return nil
}

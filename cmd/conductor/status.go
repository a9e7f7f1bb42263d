package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show conductor status",
	Long: `Display the current middleware state.

Shows:
  - Active delegations (open, within the staleness window)
  - Abandoned delegations (open, past the staleness window)
  - Active tracked tasks
  - Session bundles on disk
  - Storage locations

Examples:
  conductor status
  conductor status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	BaseDir     string           `json:"base_dir"`
	Active      []delegationInfo `json:"active_delegations,omitempty"`
	Abandoned   []delegationInfo `json:"abandoned_delegations,omitempty"`
	ActiveTasks []string         `json:"active_tasks,omitempty"`
	BundleCount int              `json:"bundle_count"`
}

type delegationInfo struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Task       string `json:"task,omitempty"`
	Background bool   `json:"background,omitempty"`
	Age        string `json:"age"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt := newServices()

	out := statusOutput{BaseDir: rt.cfg.BaseDir}

	records, err := rt.tracker.Active()
	if err != nil {
		return fmt.Errorf("read delegations: %w", err)
	}
	for _, rec := range records {
		info := delegationInfo{
			ID:         rec.DelegationID,
			Role:       rec.Role,
			Task:       rec.Task,
			Background: rec.Background,
			Age:        formatAge(time.Since(rec.Timestamp)),
		}
		if rec.Status == types.StatusAbandoned {
			out.Abandoned = append(out.Abandoned, info)
		} else {
			out.Active = append(out.Active, info)
		}
	}

	out.ActiveTasks = activeTaskDescriptions(rt.store)
	if bundles, err := rt.store.ListBundles(); err == nil {
		out.BundleCount = len(bundles)
	}

	if GetOutput(rt.cfg) == "json" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printStatusText(out)
	return nil
}

// activeTaskDescriptions folds the task stream with done superseding active.
func activeTaskDescriptions(st *store.Store) []string {
	var order []string
	active := make(map[string]bool)
	_ = store.ReadEach(st, store.TasksFile, func(rec types.TaskRecord) {
		switch rec.Status {
		case types.TaskActive:
			if !active[rec.Description] {
				active[rec.Description] = true
				order = append(order, rec.Description)
			}
		case types.TaskDone:
			delete(active, rec.Description)
		}
	})

	var out []string
	for _, desc := range order {
		if active[desc] {
			out = append(out, desc)
		}
	}
	return out
}

func printStatusText(out statusOutput) {
	fmt.Printf("Base directory: %s\n", out.BaseDir)
	fmt.Printf("Activity log:   %s\n", filepath.Join(out.BaseDir, store.ActivityFile))
	fmt.Println()

	if len(out.Active) == 0 && len(out.Abandoned) == 0 {
		fmt.Println("No open delegations.")
	}
	if len(out.Active) > 0 {
		fmt.Printf("Active delegations (%d):\n", len(out.Active))
		for _, d := range out.Active {
			printDelegation(d)
		}
	}
	if len(out.Abandoned) > 0 {
		fmt.Printf("Abandoned delegations (%d):\n", len(out.Abandoned))
		for _, d := range out.Abandoned {
			printDelegation(d)
		}
	}

	fmt.Println()
	if len(out.ActiveTasks) > 0 {
		fmt.Printf("Active tasks (%d):\n", len(out.ActiveTasks))
		for _, t := range out.ActiveTasks {
			fmt.Printf("  - %s\n", t)
		}
	} else {
		fmt.Println("No active tasks.")
	}
	fmt.Printf("Session bundles: %d\n", out.BundleCount)
}

func printDelegation(d delegationInfo) {
	marker := ""
	if d.Background {
		marker = " [background]"
	}
	fmt.Printf("  %s  %s%s  %s ago\n", d.ID, d.Role, marker, d.Age)
}

// formatAge renders a duration in the largest useful unit.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

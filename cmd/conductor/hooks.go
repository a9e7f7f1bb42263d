package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	hooksDryRun bool
	hooksForce  bool
	hooksGlobal bool
)

// HookEntry represents a single hook command (e.g., {"type": "command", "command": "..."}).
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup represents a hook group with optional matcher and a hooks array.
// Agent runtime format: {"matcher": "Write|Edit", "hooks": [{"type": "command", "command": "..."}]}
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// hookEvents lists the events conductor installs, in canonical order.
func hookEvents() []string {
	return []string{
		"SessionStart", "SessionEnd",
		"PreToolUse", "PostToolUse",
		"UserPromptSubmit",
		"Stop", "SubagentStop",
	}
}

// conductorHooksConfig maps each event to its conductor subcommand.
func conductorHooksConfig() map[string][]HookGroup {
	single := func(matcher, subcmd string) []HookGroup {
		return []HookGroup{{
			Matcher: matcher,
			Hooks:   []HookEntry{{Type: "command", Command: "conductor " + subcmd}},
		}}
	}
	return map[string][]HookGroup{
		"SessionStart":     single("", "session-start"),
		"SessionEnd":       single("", "session-end"),
		"PreToolUse":       single("Bash|Read|Edit|MultiEdit|Write", "pre-tool-use"),
		"PostToolUse":      single("Bash|Read|Edit|MultiEdit|Write|Task", "post-tool-use"),
		"UserPromptSubmit": single("", "track"),
		"Stop":             single("", "stop"),
		"SubagentStop":     single("", "subagent-stop"),
	}
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage agent runtime hook configuration",
	Long: `The hooks command manages the hook entries that wire conductor into
the agent runtime.

Subcommands:
  install   Install hooks to .claude/settings.json
  show      Display current hook configuration

Installed hooks:
  PreToolUse        conductor pre-tool-use     (action classification)
  PostToolUse       conductor post-tool-use    (audit + delegation tracking)
  SessionStart      conductor session-start    (context priming)
  SessionEnd        conductor session-end      (session summary)
  UserPromptSubmit  conductor track            (/track directives)
  Stop              conductor stop             (background work guard)
  SubagentStop      conductor subagent-stop    (delegation completion)`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install hooks to agent runtime settings",
	Long: `Install conductor hooks to .claude/settings.json.

This command:
  1. Reads existing settings.json (if any)
  2. Merges conductor hooks with existing configuration
  3. Creates a backup of the original settings
  4. Writes the updated configuration

By default the project-level .claude/settings.json is used.
Use --global to install to ~/.claude/settings.json instead.
Use --force to overwrite existing conductor hooks.`,
	RunE: runHooksInstall,
}

var hooksShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current hook configuration",
	Long:  `Display the hook configuration from settings.json, per event.`,
	RunE:  runHooksShow,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksShowCmd)

	hooksInstallCmd.Flags().BoolVar(&hooksDryRun, "dry-run", false, "Show what would be installed without making changes")
	hooksInstallCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite existing conductor hooks")
	hooksInstallCmd.PersistentFlags().BoolVar(&hooksGlobal, "global", false, "Use ~/.claude/settings.json instead of the project settings")
	hooksShowCmd.Flags().BoolVar(&hooksGlobal, "global", false, "Use ~/.claude/settings.json instead of the project settings")
}

// settingsPath resolves the settings.json location per the --global flag.
func settingsPath() (string, error) {
	if hooksGlobal {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		return filepath.Join(home, ".claude", "settings.json"), nil
	}
	return filepath.Join(".claude", "settings.json"), nil
}

func loadSettings(path string) (map[string]any, error) {
	settings := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse existing settings: %w", err)
	}
	return settings, nil
}

// isConductorHookCommand reports whether a hook command is conductor-managed.
func isConductorHookCommand(cmd string) bool {
	return strings.HasPrefix(cmd, "conductor ") || strings.Contains(cmd, "/conductor ")
}

// rawGroupIsConductorManaged checks a raw hook group for conductor commands.
func rawGroupIsConductorManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hook["command"].(string); ok && isConductorHookCommand(cmd) {
			return true
		}
	}
	return false
}

// filterForeignHookGroups returns the hook groups for an event that are not
// conductor-managed, preserving whatever other tooling installed.
func filterForeignHookGroups(hooksMap map[string]any, event string) []any {
	var result []any
	groups, ok := hooksMap[event].([]any)
	if !ok {
		return result
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok || !rawGroupIsConductorManaged(group) {
			result = append(result, g)
		}
	}
	return result
}

// conductorHooksPresent reports whether any event already has conductor hooks.
func conductorHooksPresent(settings map[string]any) bool {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	for _, event := range hookEvents() {
		groups, ok := hooksMap[event].([]any)
		if !ok {
			continue
		}
		for _, g := range groups {
			if group, ok := g.(map[string]any); ok && rawGroupIsConductorManaged(group) {
				return true
			}
		}
	}
	return false
}

func hookGroupToMap(g HookGroup) map[string]any {
	hooks := make([]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{"type": h.Type, "command": h.Command}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks[i] = entry
	}
	result := map[string]any{"hooks": hooks}
	if g.Matcher != "" {
		result["matcher"] = g.Matcher
	}
	return result
}

func backupSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Printf("Backed up existing settings to %s\n", backupPath)
	return nil
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	settings, err := loadSettings(path)
	if err != nil {
		return err
	}

	if conductorHooksPresent(settings) && !hooksForce {
		fmt.Println("conductor hooks already installed. Use --force to overwrite.")
		return nil
	}

	hooksMap := make(map[string]any)
	if existing, ok := settings["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}

	newHooks := conductorHooksConfig()
	for _, event := range hookEvents() {
		groups := filterForeignHookGroups(hooksMap, event)
		for _, g := range newHooks[event] {
			groups = append(groups, hookGroupToMap(g))
		}
		hooksMap[event] = groups
	}
	settings["hooks"] = hooksMap

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if hooksDryRun {
		fmt.Println("[dry-run] Would write to", path)
		fmt.Println(string(data))
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	fmt.Printf("Installed conductor hooks to %s\n", path)
	fmt.Printf("Events covered: %s\n", strings.Join(hookEvents(), ", "))
	return nil
}

func runHooksShow(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	settings, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok || len(hooksMap) == 0 {
		fmt.Println("No hooks configured in", path)
		fmt.Println("Run 'conductor hooks install' to set up hooks.")
		return nil
	}

	fmt.Println("Hook event coverage:")
	installed := 0
	for _, event := range hookEvents() {
		groups, has := hooksMap[event].([]any)
		if has && len(groups) > 0 {
			fmt.Printf("  + %-18s %d group(s)\n", event, len(groups))
			installed++
		} else {
			fmt.Printf("  - %-18s not installed\n", event)
		}
	}
	fmt.Println()
	fmt.Printf("%d/%d events installed\n", installed, len(hookEvents()))

	if conductorHooksPresent(settings) {
		fmt.Println("conductor hooks are installed")
	} else {
		fmt.Println("conductor hooks not found. Run 'conductor hooks install' to set up.")
	}
	return nil
}

// Package hookio implements the wire protocol between the agent runtime and
// conductor's hook commands: JSON payloads on stdin, JSON responses on
// stdout. Stdout belongs to the protocol; nothing else in conductor may
// print there during a hook invocation.
package hookio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/boshu2/conductor/internal/types"
)

// Hook event names, as delivered in hook_event_name.
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventSessionStart     = "SessionStart"
	EventSessionEnd       = "SessionEnd"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventStop             = "Stop"
	EventSubagentStop     = "SubagentStop"
)

// Input is the decoded hook payload. Fields are populated per event; absent
// fields stay zero.
type Input struct {
	SessionID      string         `json:"session_id"`
	HookEventName  string         `json:"hook_event_name"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	ToolResponse   map[string]any `json:"tool_response"`
	UserPrompt     string         `json:"user_prompt"`
	Reason         string         `json:"reason"`
	StopHookActive bool           `json:"stop_hook_active"`
	CWD            string         `json:"cwd"`
	SubagentType   string         `json:"subagent_type"`
}

// Decode reads one hook payload from r.
func Decode(r io.Reader) (*Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode hook payload: %w", err)
	}
	return &in, nil
}

// ActionKind maps the tool name to an action kind. The second return is
// false for tools outside the audited set (and for Task, which is handled
// as a delegation, not an action).
func (in *Input) ActionKind() (types.ActionKind, bool) {
	switch in.ToolName {
	case "Bash":
		return types.ActionCommand, true
	case "Read":
		return types.ActionFileRead, true
	case "Edit", "MultiEdit":
		return types.ActionFileEdit, true
	case "Write":
		return types.ActionFileWrite, true
	default:
		return "", false
	}
}

// inputStr fetches a string field from tool_input.
func (in *Input) inputStr(key string) string {
	if in.ToolInput == nil {
		return ""
	}
	s, _ := in.ToolInput[key].(string)
	return s
}

// Command returns the tool_input command, for Bash invocations.
func (in *Input) Command() string { return in.inputStr("command") }

// FilePath returns the tool_input file path, for file tools.
func (in *Input) FilePath() string { return in.inputStr("file_path") }

// TaskPrompt returns the tool_input prompt, for Task invocations.
func (in *Input) TaskPrompt() string { return in.inputStr("prompt") }

// TaskRole returns the subagent type named in tool_input, for Task
// invocations, falling back to the top-level field.
func (in *Input) TaskRole() string {
	if role := in.inputStr("subagent_type"); role != "" {
		return role
	}
	return in.SubagentType
}

// Succeeded reports the tool outcome. Missing outcome reads as success, the
// optimistic default the audit trail inherits from the hook protocol.
func (in *Input) Succeeded() bool {
	if in.ToolResponse == nil {
		return true
	}
	if ok, found := in.ToolResponse["success"].(bool); found {
		return ok
	}
	return true
}

// specificOutput is the hookSpecificOutput envelope.
type specificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
}

// response is the top-level hook response shape.
type response struct {
	HookSpecificOutput *specificOutput `json:"hookSpecificOutput,omitempty"`
	Continue           *bool           `json:"continue,omitempty"`
	StopReason         string          `json:"stopReason,omitempty"`
}

// WritePermission emits a PreToolUse permission decision.
func WritePermission(w io.Writer, result types.ClassificationResult) error {
	return write(w, response{HookSpecificOutput: &specificOutput{
		HookEventName:            EventPreToolUse,
		PermissionDecision:       string(result.Decision),
		PermissionDecisionReason: result.Reason,
	}})
}

// WriteContext emits an additionalContext response for the given event.
func WriteContext(w io.Writer, event, context string) error {
	return write(w, response{HookSpecificOutput: &specificOutput{
		HookEventName:     event,
		AdditionalContext: context,
	}})
}

// WriteBlockStop emits the blocking stop response.
func WriteBlockStop(w io.Writer, reason string) error {
	cont := false
	return write(w, response{Continue: &cont, StopReason: reason})
}

// WriteEmpty emits the empty response, meaning "no objection".
func WriteEmpty(w io.Writer) error {
	_, err := fmt.Fprintln(w, "{}")
	return err
}

func write(w io.Writer, v response) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode hook response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Package classify decides whether a proposed action may run. Classification
// is a pure function over static, ordered pattern tables: deny rules are
// evaluated first, then ask rules, then allow rules, then the configured
// default. A deny match is never overridden by a simultaneous allow match.
//
// The threat model mirrors the PreToolUse guards conductor installs:
// destructive filesystem operations, privileged destructive operations, raw
// device writes, filesystem creation, fork bombs, and pipe-to-interpreter
// remote execution are blocked outright; history-rewriting git operations,
// privilege escalation, scoped recursive deletes, and package publishes
// require confirmation; read-only informational commands are auto-approved.
package classify

import (
	"fmt"
	"regexp"

	"github.com/boshu2/conductor/internal/types"
)

// DefaultDecision is the verdict applied when no pattern matches.
//
// Fail-open is a deliberate, reviewed policy choice inherited from the hook
// behavior this middleware enforces: an unrecognized command is permitted
// rather than blocked, because the deny and ask tables enumerate the harmful
// shapes and a default-deny posture would make the agent unusable for
// ordinary work. Change this constant (or the classifier.default config key)
// to tighten the policy.
const DefaultDecision = types.DecisionAllow

// DefaultReason names the default policy in emitted results.
const DefaultReason = "no pattern matched; default policy applied"

// rule pairs a compiled pattern with the category it detects.
type rule struct {
	re       *regexp.Regexp
	category string
}

// Deny table. Order matters only for reason selection; any match denies.
var denyRules = []rule{
	{regexp.MustCompile(`(?i)rm\s+-rf\s+/`), "recursive delete of root-like path"},
	{regexp.MustCompile(`(?i)sudo\s+rm`), "privileged delete"},
	{regexp.MustCompile(`(?i)>\s*/dev/sd[a-z]`), "raw device write"},
	{regexp.MustCompile(`(?i)dd\s+if=.*of=/dev`), "raw device write"},
	{regexp.MustCompile(`(?i)mkfs\.`), "filesystem creation"},
	{regexp.MustCompile(`(?i)\bfdisk\b`), "disk partitioning"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`), "fork bomb"},
	{regexp.MustCompile(`(?i)curl\b.*\|\s*(ba|z|da)?sh\b`), "pipe to interpreter"},
	{regexp.MustCompile(`(?i)wget\b.*\|\s*(ba|z|da)?sh\b`), "pipe to interpreter"},
}

// Ask table. Evaluated only after every deny rule has failed.
var askRules = []rule{
	{regexp.MustCompile(`(?i)git\s+push\s+.*--force`), "force push"},
	{regexp.MustCompile(`(?i)git\s+push\s+-f\b`), "force push"},
	{regexp.MustCompile(`(?i)git\s+reset\s+--hard`), "hard reset"},
	{regexp.MustCompile(`(?i)git\s+clean\s+-[a-z]*f`), "force clean"},
	{regexp.MustCompile(`(?i)\bsudo\s+`), "privilege escalation"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+\S+`), "recursive delete"},
	{regexp.MustCompile(`(?i)npm\s+publish`), "package publish"},
	{regexp.MustCompile(`(?i)cargo\s+publish`), "package publish"},
	{regexp.MustCompile(`(?i)pip\s+install\s+.*--break-system-packages`), "system package override"},
}

// Allow table: read-only, informational operations.
var allowRules = []rule{
	{regexp.MustCompile(`(?i)^\s*git\s+(status|log|diff|show|branch)\b`), "read-only git operation"},
	{regexp.MustCompile(`(?i)^\s*(ls|cat|head|tail|wc)\b`), "read-only file operation"},
	{regexp.MustCompile(`(?i)^\s*(grep|rg|find)\b`), "search operation"},
}

// Classify evaluates a proposed action against the ordered pattern tables
// and returns the verdict with a reason naming the matched category. It has
// no side effects and returns identical output for identical input.
//
// Non-command actions (file reads, edits, writes) are not matched against
// the command tables: file-level safety is the caller's concern and the
// hook protocol auto-approves them here.
func Classify(kind types.ActionKind, payload string) types.ClassificationResult {
	if kind != types.ActionCommand && kind != "" {
		return types.ClassificationResult{
			Decision: types.DecisionAllow,
			Reason:   fmt.Sprintf("non-command action %s auto-approved", kind),
		}
	}
	if payload == "" {
		return types.ClassificationResult{
			Decision: types.DecisionAllow,
			Reason:   "empty command auto-approved",
		}
	}

	for _, r := range denyRules {
		if r.re.MatchString(payload) {
			return types.ClassificationResult{
				Decision: types.DecisionDeny,
				Reason:   fmt.Sprintf("blocked: %s", r.category),
			}
		}
	}
	for _, r := range askRules {
		if r.re.MatchString(payload) {
			return types.ClassificationResult{
				Decision: types.DecisionAsk,
				Reason:   fmt.Sprintf("confirmation required: %s", r.category),
			}
		}
	}
	for _, r := range allowRules {
		if r.re.MatchString(payload) {
			return types.ClassificationResult{
				Decision: types.DecisionAllow,
				Reason:   fmt.Sprintf("auto-approved: %s", r.category),
			}
		}
	}

	return types.ClassificationResult{Decision: DefaultDecision, Reason: DefaultReason}
}

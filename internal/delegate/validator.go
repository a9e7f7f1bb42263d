// Package delegate gates delegation requests and tracks their lifecycle in
// the append-only coordination stream.
//
// A submission passes four checks: the role must belong to the closed known
// set; the task description length must fall inside the configured range;
// the description must not state a blocked intent; and it must state a
// recognizable allowed intent. Blocked patterns win over allowed ones:
// "review how credentials are deleted" is still rejected.
package delegate

import (
	"fmt"
	"regexp"

	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/types"
)

// intentRule is an allowed-intent pattern with its own length range.
// Implementation-type intents require more specific (longer) descriptions
// than analysis-type intents, forcing the requester to say what to build.
type intentRule struct {
	name     string
	re       *regexp.Regexp
	minLen   int
	maxLen   int // 0 means use the configured maximum
}

var allowedIntents = []intentRule{
	{name: "analysis", re: regexp.MustCompile(`(?i)\b(analy[sz]e|investigate|explore|examine)\b`)},
	{name: "research", re: regexp.MustCompile(`(?i)\b(research|survey|compare|benchmark)\b`)},
	{name: "documentation", re: regexp.MustCompile(`(?i)\b(document|describe|summari[sz]e|write up)\b`)},
	{name: "review", re: regexp.MustCompile(`(?i)\b(review|audit|assess|evaluate)\b`)},
	{name: "implementation", re: regexp.MustCompile(`(?i)\b(implement|build|create|add|refactor)\b`), minLen: 20, maxLen: 300},
	{name: "testing", re: regexp.MustCompile(`(?i)\b(test|verify|validate|reproduce)\b`), minLen: 20, maxLen: 300},
	{name: "fix", re: regexp.MustCompile(`(?i)\b(fix|repair|debug|resolve)\b`), minLen: 20, maxLen: 300},
}

// blockedIntents reject a submission regardless of any allowed match.
var blockedIntents = []struct {
	name string
	re   *regexp.Regexp
}{
	{"system access", regexp.MustCompile(`(?i)(\b(shell|sudo|root access|system call)\b|/etc\b|/dev/)`)},
	{"credential handling", regexp.MustCompile(`(?i)\b(credential|password|token|api.?key|secret)s?\b`)},
	{"privilege escalation", regexp.MustCompile(`(?i)\b(escalate|privilege|setuid|admin rights)\b`)},
	{"destructive data operation", regexp.MustCompile(`(?i)\b(delete all|drop table|truncate|wipe|destroy)\b`)},
	{"out-of-scope access", regexp.MustCompile(`(?i)\b(exfiltrate|upload to|external server|scan network)\b`)},
}

// Validator gates delegation submissions before they reach the tracker.
type Validator struct {
	roles  map[string]struct{}
	minLen int
	maxLen int
}

// NewValidator builds a validator from delegation config.
func NewValidator(cfg config.DelegationConfig) *Validator {
	roles := make(map[string]struct{}, len(cfg.Roles))
	for _, r := range cfg.Roles {
		roles[r] = struct{}{}
	}
	return &Validator{
		roles:  roles,
		minLen: cfg.MinTaskLength,
		maxLen: cfg.MaxTaskLength,
	}
}

// Validate runs the four checks in order and returns the first failure.
// On rejection no record of any kind is written.
func (v *Validator) Validate(role, task string) error {
	if _, ok := v.roles[role]; !ok {
		return fmt.Errorf("%w: %q is not a known role", types.ErrUnknownRole, role)
	}

	if len(task) < v.minLen || len(task) > v.maxLen {
		return fmt.Errorf("%w: %d characters, want %d-%d",
			types.ErrTaskLength, len(task), v.minLen, v.maxLen)
	}

	// Blocked intents take precedence over any allowed match, so they are
	// evaluated first: a blocked task gets the blocked reason even when no
	// allowed intent matches either.
	for _, b := range blockedIntents {
		if b.re.MatchString(task) {
			return fmt.Errorf("%w: %s", types.ErrBlockedIntent, b.name)
		}
	}

	intent := matchIntent(task)
	if intent == nil {
		return fmt.Errorf("%w: describe the task as analysis, research, documentation, review, implementation, testing, or a fix",
			types.ErrNoAllowedIntent)
	}
	min, max := intent.minLen, intent.maxLen
	if min == 0 {
		min = v.minLen
	}
	if max == 0 {
		max = v.maxLen
	}
	if len(task) < min || len(task) > max {
		return fmt.Errorf("%w: %s tasks need %d-%d characters, got %d",
			types.ErrTaskLength, intent.name, min, max, len(task))
	}

	return nil
}

// matchIntent returns the first allowed-intent rule the task matches.
func matchIntent(task string) *intentRule {
	for i := range allowedIntents {
		if allowedIntents[i].re.MatchString(task) {
			return &allowedIntents[i]
		}
	}
	return nil
}

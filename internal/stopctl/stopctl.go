// Package stopctl decides whether unfinished background work should hold up
// a stop request. The controller only reports the blocking condition; the
// caller decides whether to proceed or wait, and nothing here can force a
// session to continue.
package stopctl

import (
	"fmt"
	"strings"

	"github.com/boshu2/conductor/internal/delegate"
	"github.com/boshu2/conductor/internal/logging"
)

// Controller checks the delegation tracker before a stop is honored.
type Controller struct {
	tracker *delegate.Tracker
}

// New creates a stop controller over the given tracker.
func New(tr *delegate.Tracker) *Controller {
	return &Controller{tracker: tr}
}

// Status is the advisory result of a stop check.
type Status struct {
	// Blocking is true when background delegations are still open.
	Blocking bool `json:"blocking"`

	// Count is the number of open background delegations.
	Count int `json:"count"`

	// Roles names the delegated roles still running.
	Roles []string `json:"roles,omitempty"`
}

// Check queries for background delegations with status=initiated and no
// completion record. Errors degrade to a non-blocking status: a broken log
// must not trap the session in an unstoppable state.
func (c *Controller) Check() Status {
	bg, err := c.tracker.ActiveBackground()
	if err != nil {
		logging.Dropped("stopctl", err)
		return Status{}
	}
	if len(bg) == 0 {
		return Status{}
	}

	roles := make([]string, 0, len(bg))
	for _, rec := range bg {
		roles = append(roles, rec.Role)
	}
	return Status{Blocking: true, Count: len(bg), Roles: roles}
}

// Reason renders the human-readable stop reason for a blocking status.
func (s Status) Reason() string {
	if !s.Blocking {
		return ""
	}
	plural := ""
	if s.Count != 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d background delegation%s still active: %s",
		s.Count, plural, strings.Join(s.Roles, ", "))
}

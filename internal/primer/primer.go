// Package primer builds the situational summary emitted at session start.
// Everything it reports is derived by pure, parameterized queries over the
// append-only streams (filter by time window, deduplicate by key); there is
// no process-wide cache to go stale. The primer performs no writes.
package primer

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/delegate"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

// Primer derives a session-start summary from the existing logs.
type Primer struct {
	store   *store.Store
	tracker *delegate.Tracker
	cfg     config.PrimerConfig

	// gitStatus returns `git status --porcelain` output. Injectable for tests.
	gitStatus func() (string, error)

	now func() time.Time
}

// Option configures a Primer.
type Option func(*Primer)

// WithGitStatus overrides the git status source (used in tests).
func WithGitStatus(fn func() (string, error)) Option {
	return func(p *Primer) {
		p.gitStatus = fn
	}
}

// WithClock overrides the timestamp source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(p *Primer) {
		p.now = now
	}
}

// New creates a primer over the given store and tracker.
func New(s *store.Store, tr *delegate.Tracker, cfg config.PrimerConfig, opts ...Option) *Primer {
	p := &Primer{
		store:   s,
		tracker: tr,
		cfg:     cfg,
		gitStatus: func() (string, error) {
			out, err := exec.Command("git", "status", "--porcelain").Output()
			return string(out), err
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summary is the structured primer output.
type Summary struct {
	// GitState is "working tree clean", "N changes", or "unknown".
	GitState string `json:"git_state"`

	// RecentFiles are the last distinct file paths touched, most recent first.
	RecentFiles []string `json:"recent_files,omitempty"`

	// RecentRoles are the last distinct roles delegated to, most recent first.
	RecentRoles []string `json:"recent_roles,omitempty"`

	// BackgroundCount counts initiated background delegations within the
	// recency window.
	BackgroundCount int `json:"background_count"`

	// BackgroundRoles names the roles of those delegations.
	BackgroundRoles []string `json:"background_roles,omitempty"`

	// ActiveTasks counts user-tracked tasks with status=active.
	ActiveTasks int `json:"active_tasks"`
}

// Build runs the read-only queries and assembles the summary.
func (p *Primer) Build() Summary {
	sum := Summary{
		GitState:    p.gitState(),
		RecentFiles: p.recentFiles(),
		RecentRoles: p.recentRoles(),
		ActiveTasks: p.activeTasks(),
	}
	sum.BackgroundCount, sum.BackgroundRoles = p.recentBackground()
	return sum
}

// Text renders the summary as the short context block handed to a new session.
func (s Summary) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Git status: %s\n", s.GitState)
	if len(s.RecentFiles) > 0 {
		fmt.Fprintf(&b, "Recent files: %s\n", strings.Join(s.RecentFiles, ", "))
	}
	if len(s.RecentRoles) > 0 {
		fmt.Fprintf(&b, "Recent delegations: %s\n", strings.Join(s.RecentRoles, ", "))
	}
	if s.BackgroundCount > 0 {
		plural := ""
		if s.BackgroundCount != 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "Background tasks: %d background task%s (%s)\n",
			s.BackgroundCount, plural, strings.Join(s.BackgroundRoles, ", "))
	}
	fmt.Fprintf(&b, "Active tasks: %d\n", s.ActiveTasks)

	return b.String()
}

func (p *Primer) gitState() string {
	out, err := p.gitStatus()
	if err != nil {
		return "unknown"
	}
	lines := 0
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	if lines == 0 {
		return "working tree clean"
	}
	return fmt.Sprintf("%d changes", lines)
}

// recentFiles returns the last distinct successful file paths, most recent
// first, capped at the configured count.
func (p *Primer) recentFiles() []string {
	var all []types.ActionRecord
	err := store.ReadEach(p.store, store.ActivityFile, func(rec types.ActionRecord) {
		if rec.Kind == types.KindAction && rec.File != "" && rec.Success {
			all = append(all, rec)
		}
	})
	logging.Dropped("primer", err)

	var files []string
	seen := make(map[string]struct{})
	for i := len(all) - 1; i >= 0 && len(files) < p.cfg.RecentFiles; i-- {
		name := filepath.Base(all[i].File)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		files = append(files, name)
	}
	return files
}

// recentRoles returns the last distinct delegated roles, most recent first.
func (p *Primer) recentRoles() []string {
	var all []types.DelegationRecord
	err := store.ReadEach(p.store, store.CoordinationFile, func(rec types.DelegationRecord) {
		if rec.Status == types.StatusInitiated && rec.Role != "" {
			all = append(all, rec)
		}
	})
	logging.Dropped("primer", err)

	var roles []string
	seen := make(map[string]struct{})
	for i := len(all) - 1; i >= 0 && len(roles) < p.cfg.RecentRoles; i-- {
		if _, ok := seen[all[i].Role]; ok {
			continue
		}
		seen[all[i].Role] = struct{}{}
		roles = append(roles, all[i].Role)
	}
	return roles
}

// recentBackground counts initiated background delegations inside the
// recency window.
func (p *Primer) recentBackground() (int, []string) {
	bg, err := p.tracker.ActiveBackground()
	if err != nil {
		logging.Dropped("primer", err)
		return 0, nil
	}

	cutoff := p.now().Add(-p.cfg.RecencyWindow())
	var roles []string
	for _, rec := range bg {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		roles = append(roles, rec.Role)
	}
	return len(roles), roles
}

func (p *Primer) activeTasks() int {
	// A done record supersedes the active record with the same description.
	active := make(map[string]bool)
	err := store.ReadEach(p.store, store.TasksFile, func(rec types.TaskRecord) {
		switch rec.Status {
		case types.TaskActive:
			active[rec.Description] = true
		case types.TaskDone:
			delete(active, rec.Description)
		}
	})
	logging.Dropped("primer", err)
	return len(active)
}

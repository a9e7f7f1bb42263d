// Package bundle ranks prior sessions for restoration and reconstructs a
// condensed narrative from a session's bundle stream. A bundle is the
// ordered trail of summarized operations a session left behind; restoring
// one primes a new session without replaying the original interaction.
package bundle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/store"
	"github.com/boshu2/conductor/internal/types"
)

// Suggester scans all per-session bundle streams and ranks them.
type Suggester struct {
	store *store.Store
	cfg   config.BundleConfig
	now   func() time.Time
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithClock overrides the timestamp source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Suggester) {
		s.now = now
	}
}

// NewSuggester creates a suggester over the given store.
func NewSuggester(st *store.Store, cfg config.BundleConfig, opts ...Option) *Suggester {
	s := &Suggester{store: st, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggestion is one ranked prior session.
type Suggestion struct {
	// SessionID identifies the prior session.
	SessionID string `json:"session_id"`

	// LastActivity is the timestamp of the session's newest entry.
	LastActivity time.Time `json:"last_activity"`

	// EntryCount is the number of bundle entries.
	EntryCount int `json:"entry_count"`

	// Score is the relevance score used for ranking.
	Score float64 `json:"score"`

	// Summary is a generated one-line description of the session.
	Summary string `json:"summary"`
}

// Score combines recency and activity volume. It is monotonic
// non-decreasing in recency (smaller age scores higher) and in entry count
// up to the cap, after which more entries change nothing: a huge session
// should not outrank fresh work forever.
func Score(age time.Duration, entries, limit int) float64 {
	if age < 0 {
		age = 0
	}
	if limit <= 0 {
		limit = 1
	}
	if entries > limit {
		entries = limit
	}
	recency := 1.0 / (1.0 + age.Hours())
	activity := float64(entries) / float64(limit)
	return recency * (1.0 + activity)
}

// Suggest returns the top-K prior sessions by relevance, newest work first
// on ties. Sessions older than the configured maximum age are skipped, as is
// the current session: suggesting the session that is just starting is noise.
func (s *Suggester) Suggest(currentSessionID string) []Suggestion {
	ids, err := s.store.ListBundles()
	if err != nil {
		logging.Dropped("bundle", err)
		return nil
	}

	now := s.now()
	maxAge := s.cfg.MaxBundleAge()

	var out []Suggestion
	for _, id := range ids {
		if id == currentSessionID {
			continue
		}
		entries, err := store.ReadAll[types.BundleEntry](s.store, store.BundlePath(id))
		if err != nil {
			logging.Dropped("bundle", err)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		last := entries[0].Timestamp
		for _, e := range entries[1:] {
			if e.Timestamp.After(last) {
				last = e.Timestamp
			}
		}
		age := now.Sub(last)
		if age > maxAge {
			continue
		}

		out = append(out, Suggestion{
			SessionID:    id,
			LastActivity: last,
			EntryCount:   len(entries),
			Score:        Score(age, len(entries), s.cfg.ActivityCap),
			Summary:      summarize(entries),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})

	if len(out) > s.cfg.TopK {
		out = out[:s.cfg.TopK]
	}
	return out
}

// Restore returns the condensed, ordered narrative of a prior session: one
// line per bundle entry, in original order.
func (s *Suggester) Restore(sessionID string) ([]string, error) {
	entries, err := store.ReadAll[types.BundleEntry](s.store, store.BundlePath(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", sessionID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrBundleNotFound, sessionID)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Summary
		if line == "" {
			line = fallbackLine(e)
		}
		lines = append(lines, fmt.Sprintf("%s %s", e.Timestamp.Format("15:04"), line))
	}
	return lines, nil
}

// summarize derives the one-line session description from its most
// distinguishing entries: operation mix, then files touched or roles
// delegated to.
func summarize(entries []types.BundleEntry) string {
	var reads, mods, commands, delegations int
	var lastFile, lastRole string

	for _, e := range entries {
		switch e.ContextType {
		case types.ContextFileContent:
			reads++
		case types.ContextFileModification:
			mods++
			if e.File != "" {
				lastFile = e.File
			}
		case types.ContextCommand:
			commands++
		case types.ContextDelegation:
			delegations++
			if e.Role != "" {
				lastRole = e.Role
			}
		}
	}

	var parts []string
	if reads > 0 {
		parts = append(parts, fmt.Sprintf("%d reads", reads))
	}
	if mods > 0 {
		parts = append(parts, fmt.Sprintf("%d modifications", mods))
	}
	if commands > 0 {
		parts = append(parts, fmt.Sprintf("%d commands", commands))
	}
	if delegations > 0 {
		parts = append(parts, fmt.Sprintf("%d delegations", delegations))
	}
	if len(parts) == 0 {
		return "no recorded operations"
	}

	desc := strings.Join(parts, ", ")
	if lastFile != "" {
		desc += ", last touched " + lastFile
	} else if lastRole != "" {
		desc += ", last delegated to " + lastRole
	}
	return desc
}

func fallbackLine(e types.BundleEntry) string {
	switch {
	case e.File != "":
		return e.Action + " " + e.File
	case e.Command != "":
		return e.Action + ": " + e.Command
	case e.Role != "":
		return "delegated to " + e.Role
	default:
		return e.Action
	}
}

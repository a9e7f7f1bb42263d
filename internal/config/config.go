// Package config provides configuration management for conductor.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (CONDUCTOR_*)
// 3. Project config (.conductor/config.yaml in cwd)
// 4. Home config (~/.conductor/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all conductor configuration.
type Config struct {
	// BaseDir is the conductor data directory (default: .agents/conductor).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Output controls the default output format (text, json).
	Output string `yaml:"output" json:"output"`

	// Debug enables the diagnostics file logger. When false (the default)
	// fire-and-forget failures are dropped silently.
	Debug bool `yaml:"debug" json:"debug"`

	// Classifier settings.
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`

	// Delegation settings.
	Delegation DelegationConfig `yaml:"delegation" json:"delegation"`

	// Primer settings.
	Primer PrimerConfig `yaml:"primer" json:"primer"`

	// Bundle settings.
	Bundle BundleConfig `yaml:"bundle" json:"bundle"`
}

// ClassifierConfig holds classifier policy settings.
type ClassifierConfig struct {
	// Default is the decision applied when no pattern matches.
	// Values: allow (default), ask, deny. The fail-open default mirrors
	// classify.DefaultDecision and exists here so the policy is reviewable
	// configuration, not an accident of fallthrough.
	Default string `yaml:"default" json:"default"`
}

// DelegationConfig holds delegation validation and tracking settings.
type DelegationConfig struct {
	// Roles is the closed set of roles a task may be delegated to.
	Roles []string `yaml:"roles" json:"roles"`

	// MinTaskLength and MaxTaskLength bound task descriptions, in characters.
	MinTaskLength int `yaml:"min_task_length" json:"min_task_length"`
	MaxTaskLength int `yaml:"max_task_length" json:"max_task_length"`

	// Staleness is how long an initiated delegation with no completion is
	// still reported as active, as a Go duration string (e.g. "1h").
	// Past this window it is treated as abandoned. The exact value is a
	// UX-freshness knob, not a correctness constraint.
	Staleness string `yaml:"staleness" json:"staleness"`
}

// StalenessWindow parses the staleness setting, falling back to the default
// when unset or malformed.
func (c DelegationConfig) StalenessWindow() time.Duration {
	if d, err := time.ParseDuration(c.Staleness); err == nil && d > 0 {
		return d
	}
	return defaultStaleness
}

// PrimerConfig holds session-start primer settings.
type PrimerConfig struct {
	// RecentFiles is how many distinct recently touched files to surface.
	RecentFiles int `yaml:"recent_files" json:"recent_files"`

	// RecentRoles is how many distinct recently delegated roles to surface.
	RecentRoles int `yaml:"recent_roles" json:"recent_roles"`

	// Window bounds how far back background delegations count as recent,
	// as a Go duration string (e.g. "1h").
	Window string `yaml:"window" json:"window"`
}

// RecencyWindow parses the primer window, falling back to the default.
func (c PrimerConfig) RecencyWindow() time.Duration {
	if d, err := time.ParseDuration(c.Window); err == nil && d > 0 {
		return d
	}
	return defaultPrimerWindow
}

// BundleConfig holds bundle suggestion settings.
type BundleConfig struct {
	// TopK is how many prior sessions to suggest.
	TopK int `yaml:"top_k" json:"top_k"`

	// ActivityCap caps the entry count used by the relevance score, so a
	// very large session cannot dominate forever.
	ActivityCap int `yaml:"activity_cap" json:"activity_cap"`

	// MaxAge bounds how old a bundle may be and still be suggested, as a
	// Go duration string (e.g. "24h").
	MaxAge string `yaml:"max_age" json:"max_age"`
}

// MaxBundleAge parses the bundle age limit, falling back to the default.
func (c BundleConfig) MaxBundleAge() time.Duration {
	if d, err := time.ParseDuration(c.MaxAge); err == nil && d > 0 {
		return d
	}
	return defaultBundleMaxAge
}

// Default config values (used in resolution and validation).
const (
	defaultOutput       = "text"
	defaultBaseDir      = ".agents/conductor"
	defaultStaleness    = time.Hour
	defaultPrimerWindow = time.Hour
	defaultBundleMaxAge = 24 * time.Hour
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseDir: defaultBaseDir,
		Output:  defaultOutput,
		Classifier: ClassifierConfig{
			Default: "allow",
		},
		Delegation: DelegationConfig{
			Roles: []string{
				"orchestrator", "implementer", "reviewer",
				"researcher", "documenter", "tester",
			},
			MinTaskLength: 10,
			MaxTaskLength: 500,
			Staleness:     "1h",
		},
		Primer: PrimerConfig{
			RecentFiles: 5,
			RecentRoles: 3,
			Window:      "1h",
		},
		Bundle: BundleConfig{
			TopK:        3,
			ActivityCap: 50,
			MaxAge:      "24h",
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".conductor", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("CONDUCTOR_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".conductor", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("CONDUCTOR_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("CONDUCTOR_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("CONDUCTOR_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("CONDUCTOR_DEFAULT_DECISION"); v != "" {
		cfg.Classifier.Default = v
	}
	if v := os.Getenv("CONDUCTOR_STALENESS"); v != "" {
		cfg.Delegation.Staleness = v
	}
	return cfg
}

// merge overlays non-zero fields from overlay onto base.
func merge(base, overlay *Config) *Config {
	out := *base

	if overlay.BaseDir != "" {
		out.BaseDir = overlay.BaseDir
	}
	if overlay.Output != "" {
		out.Output = overlay.Output
	}
	if overlay.Debug {
		out.Debug = true
	}
	if overlay.Classifier.Default != "" {
		out.Classifier.Default = overlay.Classifier.Default
	}
	if len(overlay.Delegation.Roles) > 0 {
		out.Delegation.Roles = overlay.Delegation.Roles
	}
	if overlay.Delegation.MinTaskLength > 0 {
		out.Delegation.MinTaskLength = overlay.Delegation.MinTaskLength
	}
	if overlay.Delegation.MaxTaskLength > 0 {
		out.Delegation.MaxTaskLength = overlay.Delegation.MaxTaskLength
	}
	if overlay.Delegation.Staleness != "" {
		out.Delegation.Staleness = overlay.Delegation.Staleness
	}
	if overlay.Primer.RecentFiles > 0 {
		out.Primer.RecentFiles = overlay.Primer.RecentFiles
	}
	if overlay.Primer.RecentRoles > 0 {
		out.Primer.RecentRoles = overlay.Primer.RecentRoles
	}
	if overlay.Primer.Window != "" {
		out.Primer.Window = overlay.Primer.Window
	}
	if overlay.Bundle.TopK > 0 {
		out.Bundle.TopK = overlay.Bundle.TopK
	}
	if overlay.Bundle.ActivityCap > 0 {
		out.Bundle.ActivityCap = overlay.Bundle.ActivityCap
	}
	if overlay.Bundle.MaxAge != "" {
		out.Bundle.MaxAge = overlay.Bundle.MaxAge
	}

	return &out
}

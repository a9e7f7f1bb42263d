package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/audit"
	"github.com/boshu2/conductor/internal/bundle"
	"github.com/boshu2/conductor/internal/config"
	"github.com/boshu2/conductor/internal/delegate"
	"github.com/boshu2/conductor/internal/logging"
	"github.com/boshu2/conductor/internal/primer"
	"github.com/boshu2/conductor/internal/stopctl"
	"github.com/boshu2/conductor/internal/store"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Agent middleware for classification, auditing, and coordination",
	Long: `conductor sits between an agent runtime and its side effects.

It classifies proposed actions, keeps a redacted audit trail, tracks
delegations to specialist agents, and primes new sessions with context
reconstructed from prior work.

Hook Commands (invoked by the agent runtime, JSON on stdin/stdout):
  pre-tool-use    Classify a proposed action (allow, ask, deny)
  post-tool-use   Record a completed action or delegation
  subagent-stop   Record a delegation completion
  session-start   Prime the new session with context
  session-end     Record session end and summarize
  stop            Block stopping while background work is active
  track           Handle /track task directives

User Commands:
  restore         Reconstruct a prior session's narrative
  status          Show active delegations, tasks, and log locations
  hooks           Install the hook configuration
  version         Show version information

All state lives in append-only JSONL streams under .agents/conductor.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .conductor/config.yaml)")
}

// GetOutput returns the effective output format: the -o flag when set,
// otherwise the configured default.
func GetOutput(cfg *config.Config) string {
	if output != "" {
		return output
	}
	return cfg.Output
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("CONDUCTOR_CONFIG", path)
}

// services bundles the wired components every command operates on.
type services struct {
	cfg       *config.Config
	store     *store.Store
	audit     *audit.Logger
	tracker   *delegate.Tracker
	primer    *primer.Primer
	suggester *bundle.Suggester
	stop      *stopctl.Controller
}

// newServices loads configuration and wires the component graph. Load and
// Init failures degrade to defaults rather than aborting: hook commands
// must produce a valid response even from a broken environment.
func newServices() *services {
	cfg, err := config.Load(nil)
	if err != nil {
		cfg = config.Default()
	}
	logging.Configure(cfg.BaseDir, cfg.Debug || verbose)

	st := store.New(store.WithBaseDir(cfg.BaseDir))
	if err := st.Init(); err != nil {
		logging.Dropped("store", err)
	}

	validator := delegate.NewValidator(cfg.Delegation)
	tracker := delegate.NewTracker(st, validator, cfg.Delegation.StalenessWindow())

	return &services{
		cfg:       cfg,
		store:     st,
		audit:     audit.New(st),
		tracker:   tracker,
		primer:    primer.New(st, tracker, cfg.Primer),
		suggester: bundle.NewSuggester(st, cfg.Bundle),
		stop:      stopctl.New(tracker),
	}
}

// VerbosePrintf prints to stderr only when verbose mode is enabled. Hook
// commands own stdout for protocol responses, so diagnostics go to stderr.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

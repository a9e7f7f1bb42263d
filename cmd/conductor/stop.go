package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/conductor/internal/hookio"
	"github.com/boshu2/conductor/internal/logging"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Block stopping while background work is active (Stop hook)",
	Long: `Read a Stop payload from stdin and decide whether the session may end.

When background delegations are still open, the response blocks the stop
and names the roles still in flight. The stop_hook_active guard prevents
a blocking loop: once the runtime reports the stop hook already fired,
the stop is always allowed. Any internal failure allows the stop.`,
	Run: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) {
	rt := newServices()

	in, err := hookio.Decode(os.Stdin)
	if err != nil {
		logging.Dropped("stop", err)
		writeEmpty()
		return
	}

	if in.StopHookActive {
		writeEmpty()
		return
	}

	status := rt.stop.Check()
	if !status.Blocking {
		writeEmpty()
		return
	}

	if err := hookio.WriteBlockStop(os.Stdout, status.Reason()); err != nil {
		logging.Dropped("stop", err)
	}
}

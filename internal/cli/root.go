// Package cli implements the Momentum command-line interface using Cobra.
// Each subcommand maps to one progress-engine operation (complete, preview,
// award, refresh) or to the serving daemon.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Momentum — 30-day challenge progress engine",
	Long: `Momentum tracks a 30-day challenge: day completions, streaks,
experience points and levels, with a local-first snapshot mirrored to an
authoritative remote backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

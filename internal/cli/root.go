// Package cli implements the exportd command-line interface using cobra.
package cli

import (
	"github.com/spf13/cobra"
)

// Build metadata, set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Execute runs the root command.
func Execute() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportd",
		Short: "Event export pipeline",
		Long: `exportd delivers newline-delimited JSON event records to configured
destinations: append-only files and persistent unix domain sockets.

Delivery is best-effort: an unavailable destination never blocks the
producer; records that cannot be written are dropped and counted.
Send the process SIGHUP after log rotation to reopen file destinations.

Quick start:
  my-app | exportd run --config exportd.yaml
  exportd check --config exportd.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		runCmd(),
		checkCmd(),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("exportd version %s\n", Version)
			cmd.Printf("  build date: %s\n", BuildDate)
			cmd.Printf("  git commit: %s\n", GitCommit)
		},
	}
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "vaultctl - prepaid subscription vault tooling",
		Long: `vaultctl works with the prepaid subscription vault offline.

Examples:
  vaultctl transitions                 # Print the status transition table
  vaultctl simulate -f scenario.yaml   # Replay a billing scenario`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log vault operations to stderr")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newTransitionsCmd())
	root.AddCommand(newSimulateCmd(logger))
	return root
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

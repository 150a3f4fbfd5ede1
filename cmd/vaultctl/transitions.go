package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/vault"
	"github.com/xraph/vault/subscription"
)

func newTransitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "transitions [status]",
		Short:   "Show allowed subscription status transitions",
		Aliases: []string{"states"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := subscription.Statuses()
			if len(args) == 1 {
				s := vault.Status(args[0])
				if !s.IsValid() {
					return fmt.Errorf("unknown status %q", args[0])
				}
				statuses = []vault.Status{s}
			}
			printTransitions(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
}

func printTransitions(w io.Writer, statuses []vault.Status) {
	for _, from := range statuses {
		targets := vault.AllowedTransitions(from)
		names := make([]string, len(targets))
		for i, to := range targets {
			names[i] = string(to)
		}
		if len(names) == 0 {
			names = []string{"(terminal)"}
		}
		fmt.Fprintf(w, "%-22s -> %s\n", from, strings.Join(names, ", "))
	}
}

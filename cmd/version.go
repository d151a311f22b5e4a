package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time metadata, injected via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newVersionCmd reports build metadata. It does not touch application
// services; the root hook skips initialization for it.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the osintvm version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "osintvm %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for backcheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backcheck",
		Short: "Backlink placement checker",
		Long: `Backcheck verifies backlink placements in bulk.

Given a spreadsheet of donor pages it fetches each page (directly or
through proxies) and checks, in order: the target URL in anchor hrefs,
the anchor text in links or free text, and the configured domains in
link hosts. Progress is checkpointed so interrupted runs resume where
they left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewProxyCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

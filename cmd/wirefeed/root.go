// Package main provides the entry point for the wirefeed CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wirefeed.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wirefeed",
		Short: "Build a merged RSS feed from press-release listings",
		Long: `Wirefeed crawls paginated press-release listings, extracts each item's
metadata, and merges everything into one deduplicated RSS 2.0 feed
ordered newest first.

Sources, keywords, and the output channel are described in a YAML
definition file. Run "wirefeed init" to create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
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

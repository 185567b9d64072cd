package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wirefeed-dev/wirefeed/internal/config"
)

//go:embed templates/wirefeed.yaml
var definitionTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new feed definition file",
		Long: `Init creates a wirefeed.yaml feed definition in the current directory.

The generated file includes:
- A channel block for the output feed's title, link, and description
- Commented example sources for listings and existing feeds
- Documentation for keywords, item patterns, and timing options

Examples:
  # Create wirefeed.yaml in the current directory
  wirefeed init

  # Create the definition at a specific path
  wirefeed init -o feeds/acme.yaml

  # Force overwrite an existing file
  wirefeed init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultDefinitionFile,
		"Output path for the feed definition")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing definition file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("feed definition already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := definitionTemplate.ReadFile("templates/wirefeed.yaml")
	if err != nil {
		return fmt.Errorf("failed to read definition template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write feed definition: %w", err)
	}

	fmt.Printf("Created feed definition: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - The output channel's title, link, and description")
	fmt.Println("  - Listing and feed sources with their keywords")
	fmt.Println("  - Page caps, item caps, and request pacing")

	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wirefeed-dev/wirefeed/internal/config"
	"github.com/wirefeed-dev/wirefeed/internal/database"
	"github.com/wirefeed-dev/wirefeed/internal/feed"
	"github.com/wirefeed-dev/wirefeed/internal/log"
	"github.com/wirefeed-dev/wirefeed/internal/model"
	"github.com/wirefeed-dev/wirefeed/internal/pipeline"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Crawl all sources and write the merged RSS feed",
		Long: `Build walks every source in the feed definition, extracts each press
release's title, publication time, summary, and image, and writes one
deduplicated RSS 2.0 feed ordered newest first.

Listing sources are crawled page by page until a page yields nothing
new; feed sources are merged directly. One unreachable item or source
never fails the build, it only shrinks the output.

Examples:
  # Build using wirefeed.yaml from the current directory
  wirefeed build

  # Use a specific definition and output path
  wirefeed build -c acme.yaml -o public/rss.xml

  # Slow down for a fragile site and keep a Markdown summary
  wirefeed build --delay 3s --summary docs/build.md

  # Record the build in the local history database
  wirefeed build --archive`,
		Args: cobra.NoArgs,
		RunE: runBuildCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Feed definition file path (default: wirefeed.yaml in current or XDG config directory)")
	cmd.Flags().StringP("output", "o", "",
		"Feed output path (overrides the definition; default docs/rss.xml)")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum listing pages to walk per source")
	cmd.Flags().IntP("max-items", "n", config.DefaultMaxItems,
		"Maximum items in the output feed (0 = unlimited)")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Politeness delay between requests to the same site")
	cmd.Flags().String("user-agent", "",
		"Override the User-Agent header sent with requests")

	cmd.Flags().StringP("summary", "s", "",
		"Write a Markdown build summary to the specified path")
	cmd.Flags().BoolP("archive", "a", false,
		"Record built items in the local history database")

	return cmd
}

// runBuildCmd executes the build command.
func runBuildCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runBuild(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra flags and the feed definition.
// Precedence per setting: explicit flag, then definition, then default.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.DefinitionPath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicitPath := cfg.DefinitionPath != ""
	path := config.FindDefinition(cfg.DefinitionPath)
	if path == "" {
		if explicitPath {
			return nil, fmt.Errorf("feed definition not found: %s", cfg.DefinitionPath)
		}
		return nil, fmt.Errorf("no feed definition found (run \"wirefeed init\" to create %s)",
			config.DefaultDefinitionFile)
	}

	cfg.Definition, err = config.LoadDefinition(path)
	if err != nil {
		return nil, err
	}

	// Definition-level settings apply first
	defTimeout, defDelay, err := cfg.Definition.Durations()
	if err != nil {
		return nil, err
	}
	if defTimeout > 0 {
		cfg.Timeout = defTimeout
	}
	if defDelay > 0 {
		cfg.Delay = defDelay
	}
	if cfg.Definition.MaxPages > 0 {
		cfg.MaxPages = cfg.Definition.MaxPages
	}
	if cfg.Definition.MaxItems > 0 {
		cfg.MaxItems = cfg.Definition.MaxItems
	}

	// Explicit flags win over the definition
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("delay") {
		if cfg.Delay, err = cmd.Flags().GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-items") {
		if cfg.MaxItems, err = cmd.Flags().GetInt("max-items"); err != nil {
			return nil, err
		}
	}

	cfg.OutputPath, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}
	cfg.SummaryPath, err = cmd.Flags().GetString("summary")
	if err != nil {
		return nil, err
	}
	cfg.Archive, err = cmd.Flags().GetBool("archive")
	if err != nil {
		return nil, err
	}

	fillChannelDefaults(cfg.Definition)

	return cfg, nil
}

// fillChannelDefaults derives channel metadata left blank in the
// definition from the feed keyword.
func fillChannelDefaults(def *config.Definition) {
	if def.Keyword == "" {
		return
	}
	name := cases.Title(language.English).String(def.Keyword)
	if def.Channel.Title == "" {
		def.Channel.Title = name + " Newswire (Merged)"
	}
	if def.Channel.Description == "" {
		def.Channel.Description = "Merged press-release items for " + name
	}
}

// openOutput resolves the feed destination. The path "-" selects
// stdout, which stays open after the write; everything else is created
// as a regular file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := feed.CreateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// runBuild executes the feed build.
func runBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	outputPath := cfg.Output()

	logger.Info("starting build",
		"definition_sources", len(cfg.Definition.Sources),
		"output", outputPath,
		"archive", cfg.Archive,
	)

	out, closeOutput, err := openOutput(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer closeOutput()

	writers := []feed.Writer{feed.NewRSSWriter(out)}

	if cfg.SummaryPath != "" {
		summaryFile, err := feed.CreateFile(cfg.SummaryPath)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer summaryFile.Close()
		writers = append(writers, feed.NewMarkdownWriter(summaryFile))
	}

	var db *database.FeedDB
	if cfg.Archive {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	p := pipeline.DefaultPipeline(cfg, feed.NewMultiWriter(writers...), db, logger)

	result := model.NewBuildResult()
	startTime := time.Now()

	if err := p.Execute(ctx, result); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	// The completion line must not land inside the document when the
	// feed itself goes to stdout.
	status := os.Stdout
	target := outputPath
	if outputPath == "-" {
		status = os.Stderr
		target = "stdout"
	}
	fmt.Fprintf(status, "Feed written to %s: %d items from %d links (%d skipped, %d failed) in %s\n",
		target, len(result.Ordered), len(result.Links),
		result.Skipped, result.Failed,
		time.Since(startTime).Round(time.Millisecond))

	return nil
}

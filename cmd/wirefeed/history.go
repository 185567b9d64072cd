package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wirefeed-dev/wirefeed/internal/config"
	"github.com/wirefeed-dev/wirefeed/internal/database"
)

// sinceLayout is the date format accepted by --since.
const sinceLayout = "2006-01-02"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived build runs and items",
		Long: `History reads the local archive written by "wirefeed build --archive"
and shows past build runs, or the items they collected.

The archive is append-only: builds never read from it, so inspecting or
even deleting it cannot change future feeds.

Examples:
  # Show the ten most recent build runs
  wirefeed history

  # Show items first seen since a date
  wirefeed history --items --since 2026-08-01

  # Machine-readable output
  wirefeed history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 10,
		"Maximum build runs to show (0 = all)")
	cmd.Flags().Bool("items", false,
		"Show archived items instead of build runs")
	cmd.Flags().String("since", "",
		"With --items, only show items first seen on or after this date (YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// History never creates the archive: an empty history is an error
	// the user should see, not an empty database on disk.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no build history found (run \"wirefeed build --archive\" first): %w", err)
	}
	defer db.Close()

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	showItems, err := cmd.Flags().GetBool("items")
	if err != nil {
		return err
	}

	if showItems {
		since, err := parseSinceFlag(cmd)
		if err != nil {
			return err
		}
		return showArchivedItems(cmd, db, since, jsonOutput)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return showBuildRuns(cmd, db, limit, jsonOutput)
}

// parseSinceFlag reads --since; an empty flag means the beginning of time.
func parseSinceFlag(cmd *cobra.Command) (time.Time, error) {
	raw, err := cmd.Flags().GetString("since")
	if err != nil {
		return time.Time{}, err
	}
	if raw == "" {
		return time.Time{}, nil
	}

	since, err := time.Parse(sinceLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since date %q (expected YYYY-MM-DD): %w", raw, err)
	}
	return since, nil
}

// showBuildRuns prints the recorded build runs, newest first.
func showBuildRuns(cmd *cobra.Command, db *database.FeedDB, limit int, jsonOutput bool) error {
	runs, err := db.History(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No build runs recorded yet.")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-4s %-20s %8s %8s %8s %8s\n",
		"ID", "STARTED", "LINKS", "ITEMS", "SKIPPED", "FAILED")
	for _, run := range runs {
		fmt.Fprintf(w, "%-4d %-20s %8d %8d %8d %8d\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.LinksFound,
			run.ItemsWritten,
			run.Skipped,
			run.Failed,
		)
	}

	return nil
}

// showArchivedItems prints archived items first seen after the cutoff.
func showArchivedItems(cmd *cobra.Command, db *database.FeedDB, since time.Time, jsonOutput bool) error {
	items, err := db.ItemsSince(context.Background(), since)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived items in range.")
		return nil
	}

	w := cmd.OutOrStdout()
	for _, item := range items {
		fmt.Fprintf(w, "%s  %s\n", item.PublishedAt.Format("2006-01-02"), item.Title)
		fmt.Fprintf(w, "            %s\n", item.Link)
	}
	fmt.Fprintf(w, "\n%d item(s)\n", len(items))

	return nil
}

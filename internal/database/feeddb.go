package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// FeedDB provides SQLite-based storage for archived feed items and the
// run history of feed builds. All writes happen through a single
// connection; SQLite only supports one writer.
type FeedDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures FeedDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a FeedDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*FeedDB, error) {
	dbPath := filepath.Join(dbDir, "wirefeed.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fdb := &FeedDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := fdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return fdb, nil
}

// Close closes the database connection.
func (fdb *FeedDB) Close() error {
	return fdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (fdb *FeedDB) createTables() error {
	schema := `
	-- Items store every feed record ever seen, keyed by guid
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guid TEXT NOT NULL UNIQUE,
		link TEXT NOT NULL,
		title TEXT,
		summary TEXT,
		image_url TEXT,
		published_at DATETIME,
		first_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_link ON items(link);
	CREATE INDEX IF NOT EXISTS idx_items_published ON items(published_at);
	CREATE INDEX IF NOT EXISTS idx_items_first_seen ON items(first_seen_at);

	-- Build runs record one row per pipeline invocation
	CREATE TABLE IF NOT EXISTS build_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		links_found INTEGER DEFAULT 0,
		items_written INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON build_runs(started_at);
	`

	_, err := fdb.db.ExecContext(context.Background(), schema)
	return err
}

// ArchivedItem is a feed record as stored in the archive, with the
// timestamps of when it was first and last seen by a build.
type ArchivedItem struct {
	ID          int64
	GUID        string
	Link        string
	Title       string
	Summary     string
	ImageURL    string
	PublishedAt time.Time
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// RecordItems upserts the given records into the archive. An item seen
// in an earlier build keeps its first_seen_at; metadata and last_seen_at
// are refreshed from the current build.
func (fdb *FeedDB) RecordItems(ctx context.Context, records []model.FeedRecord) error {
	query := `
	INSERT INTO items (guid, link, title, summary, image_url, published_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(guid) DO UPDATE SET
		link = excluded.link,
		title = excluded.title,
		summary = excluded.summary,
		image_url = excluded.image_url,
		published_at = excluded.published_at,
		last_seen_at = CURRENT_TIMESTAMP
	`

	for _, rec := range records {
		_, err := fdb.db.ExecContext(ctx, query,
			rec.GUID,
			rec.Link,
			rec.Title,
			rec.Summary,
			rec.ImageURL,
			rec.PublishedAt.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return fmt.Errorf("failed to archive item %s: %w", rec.GUID, err)
		}
	}

	return nil
}

// RecordBuild stores one build run row and archives its ordered items.
func (fdb *FeedDB) RecordBuild(ctx context.Context, result *model.BuildResult) error {
	if err := fdb.RecordItems(ctx, result.Ordered); err != nil {
		return err
	}

	query := `
	INSERT INTO build_runs (started_at, links_found, items_written, skipped, failed)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := fdb.db.ExecContext(ctx, query,
		result.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		len(result.Links),
		len(result.Ordered),
		result.Skipped,
		result.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to record build run: %w", err)
	}

	return nil
}

// GetItem retrieves an archived item by guid. A missing item returns
// nil without error.
func (fdb *FeedDB) GetItem(ctx context.Context, guid string) (*ArchivedItem, error) {
	query := `
	SELECT id, guid, link, title, summary, image_url, published_at, first_seen_at, last_seen_at
	FROM items
	WHERE guid = ?
	`

	item, err := scanItem(fdb.db.QueryRowContext(ctx, query, guid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ItemsSince returns archived items first seen after the given time,
// newest publication first.
func (fdb *FeedDB) ItemsSince(ctx context.Context, since time.Time) ([]ArchivedItem, error) {
	query := `
	SELECT id, guid, link, title, summary, image_url, published_at, first_seen_at, last_seen_at
	FROM items
	WHERE first_seen_at > ?
	ORDER BY published_at DESC
	`

	rows, err := fdb.db.QueryContext(ctx, query, since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []ArchivedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// CountItems returns the number of archived items.
func (fdb *FeedDB) CountItems(ctx context.Context) (int, error) {
	var count int
	err := fdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// BuildRun summarizes one recorded pipeline invocation.
type BuildRun struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	LinksFound   int
	ItemsWritten int
	Skipped      int
	Failed       int
}

// History returns the most recent build runs, newest first. A limit of
// zero or less returns all runs.
func (fdb *FeedDB) History(ctx context.Context, limit int) ([]BuildRun, error) {
	query := `
	SELECT id, started_at, finished_at, links_found, items_written, skipped, failed
	FROM build_runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := fdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query build runs: %w", err)
	}
	defer rows.Close()

	var runs []BuildRun
	for rows.Next() {
		var run BuildRun
		var started, finished string

		err := rows.Scan(
			&run.ID,
			&started,
			&finished,
			&run.LinksFound,
			&run.ItemsWritten,
			&run.Skipped,
			&run.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build run: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*ArchivedItem, error) {
	var item ArchivedItem
	var published, firstSeen, lastSeen sql.NullString

	err := row.Scan(
		&item.ID,
		&item.GUID,
		&item.Link,
		&item.Title,
		&item.Summary,
		&item.ImageURL,
		&published,
		&firstSeen,
		&lastSeen,
	)
	if err != nil {
		return nil, err
	}

	if published.Valid {
		item.PublishedAt = parseTimestamp(published.String)
	}
	if firstSeen.Valid {
		item.FirstSeenAt = parseTimestamp(firstSeen.String)
	}
	if lastSeen.Valid {
		item.LastSeenAt = parseTimestamp(lastSeen.String)
	}

	return &item, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

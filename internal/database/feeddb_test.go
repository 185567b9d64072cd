package database

import (
	"context"
	"testing"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

func openTestDB(t *testing.T) *FeedDB {
	t.Helper()

	fdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := fdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return fdb
}

func testRecord(link string, published time.Time) model.FeedRecord {
	rec := model.NewFeedRecord(link)
	rec.Title = "Acme Reports Results"
	rec.Summary = "Acme today announced results."
	rec.PublishedAt = published
	return rec
}

// TestOpenRequiresExisting tests the CreateIfNotExists=false contract.
func TestOpenRequiresExisting(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error opening missing database without create option")
	}
}

// TestRecordItemsUpsert tests that re-archiving an item keeps its
// first-seen timestamp while refreshing metadata.
func TestRecordItemsUpsert(t *testing.T) {
	t.Parallel()

	fdb := openTestDB(t)
	ctx := context.Background()
	published := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	rec := testRecord("https://example.com/news-release/2024/acme", published)
	if err := fdb.RecordItems(ctx, []model.FeedRecord{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := fdb.GetItem(ctx, rec.GUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == nil {
		t.Fatal("expected archived item")
	}
	if first.Link != rec.Link {
		t.Errorf("link: got %q, want %q", first.Link, rec.Link)
	}
	if !first.PublishedAt.Equal(published) {
		t.Errorf("published_at: got %v, want %v", first.PublishedAt, published)
	}

	// Second build sees the same item with a corrected title.
	rec.Title = "Acme Reports Q3 Results"
	if err := fdb.RecordItems(ctx, []model.FeedRecord{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := fdb.GetItem(ctx, rec.GUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Title != "Acme Reports Q3 Results" {
		t.Errorf("title not refreshed: got %q", second.Title)
	}
	if !second.FirstSeenAt.Equal(first.FirstSeenAt) {
		t.Errorf("first_seen_at changed on upsert: %v vs %v", second.FirstSeenAt, first.FirstSeenAt)
	}

	count, err := fdb.CountItems(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 archived item, got %d", count)
	}
}

// TestGetItemMissing tests the nil-without-error contract.
func TestGetItemMissing(t *testing.T) {
	t.Parallel()

	fdb := openTestDB(t)

	item, err := fdb.GetItem(context.Background(), "no-such-guid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for missing item, got %+v", item)
	}
}

// TestRecordBuildHistory tests that builds land in the run history.
func TestRecordBuildHistory(t *testing.T) {
	t.Parallel()

	fdb := openTestDB(t)
	ctx := context.Background()

	result := model.NewBuildResult()
	result.AddLinks([]model.ItemLink{
		{URL: "https://example.com/news-release/2024/a"},
		{URL: "https://example.com/news-release/2024/b"},
		{URL: "https://example.com/news-release/2024/c"},
	})
	result.Ordered = []model.FeedRecord{
		testRecord("https://example.com/news-release/2024/a", time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)),
		testRecord("https://example.com/news-release/2024/b", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
	}
	result.Skipped = 1

	if err := fdb.RecordBuild(ctx, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := fdb.History(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 build run, got %d", len(runs))
	}

	run := runs[0]
	if run.LinksFound != 3 {
		t.Errorf("links_found: got %d, want 3", run.LinksFound)
	}
	if run.ItemsWritten != 2 {
		t.Errorf("items_written: got %d, want 2", run.ItemsWritten)
	}
	if run.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", run.Skipped)
	}
	if run.Failed != 0 {
		t.Errorf("failed: got %d, want 0", run.Failed)
	}

	count, err := fdb.CountItems(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 archived items, got %d", count)
	}
}

// TestItemsSince tests the first-seen cutoff query.
func TestItemsSince(t *testing.T) {
	t.Parallel()

	fdb := openTestDB(t)
	ctx := context.Background()

	records := []model.FeedRecord{
		testRecord("https://example.com/news-release/2024/old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		testRecord("https://example.com/news-release/2024/new", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := fdb.RecordItems(ctx, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := fdb.ItemsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].PublishedAt.After(items[1].PublishedAt) {
		t.Errorf("items not ordered newest first: %v then %v",
			items[0].PublishedAt, items[1].PublishedAt)
	}

	items, err = fdb.ItemsSince(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items past future cutoff, got %d", len(items))
	}
}

package aggregate

import (
	"testing"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

func record(link, title string, published time.Time) model.FeedRecord {
	r := model.NewFeedRecord(link)
	r.Title = title
	r.PublishedAt = published
	return r
}

// TestAggregateDeduplicates verifies true set semantics: identical links
// collapse to the first-seen instance.
func TestAggregateDeduplicates(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []model.FeedRecord{
		record("https://example.com/a", "First copy", ts),
		record("https://example.com/a", "Second copy", ts.Add(time.Hour)),
		record("https://example.com/b", "Other", ts),
	}

	out := Aggregate(in, 0)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	for _, r := range out {
		if r.Link == "https://example.com/a" && r.Title != "First copy" {
			t.Errorf("duplicate should keep first-seen data, got %q", r.Title)
		}
	}
}

// TestAggregateOrdering verifies newest-first order with stable ties.
func TestAggregateOrdering(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	in := []model.FeedRecord{
		record("https://example.com/old", "old", base),
		record("https://example.com/tie1", "tie1", base.Add(time.Hour)),
		record("https://example.com/new", "new", base.Add(2*time.Hour)),
		record("https://example.com/tie2", "tie2", base.Add(time.Hour)),
	}

	out := Aggregate(in, 0)

	for i := 1; i < len(out); i++ {
		if out[i-1].PublishedAt.Before(out[i].PublishedAt) {
			t.Errorf("records %d and %d out of order: %v before %v",
				i-1, i, out[i-1].PublishedAt, out[i].PublishedAt)
		}
	}

	// tie1 was seen before tie2; stability must preserve that
	wantTitles := []string{"new", "tie1", "tie2", "old"}
	for i, want := range wantTitles {
		if out[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, out[i].Title, want)
		}
	}
}

// TestAggregateCap verifies the cap keeps the newest items after sorting.
func TestAggregateCap(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	in := make([]model.FeedRecord, 0, 5)
	for i := 0; i < 5; i++ {
		in = append(in, record(
			"https://example.com/"+string(rune('a'+i)),
			string(rune('a'+i)),
			base.Add(time.Duration(i)*time.Hour),
		))
	}

	out := Aggregate(in, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Title != "e" || out[1].Title != "d" {
		t.Errorf("cap should keep newest items, got %q, %q", out[0].Title, out[1].Title)
	}
}

// TestAggregateEmpty verifies zero input yields zero output, not nil panic.
func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	out := Aggregate(nil, 10)
	if len(out) != 0 {
		t.Errorf("expected empty result, got %d records", len(out))
	}
}

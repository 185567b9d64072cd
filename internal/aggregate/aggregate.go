// Package aggregate merges records from one or more walks into the final
// ordered sequence: deduplicated by canonical link, newest first, capped.
package aggregate

import (
	"sort"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// Aggregate deduplicates records by link (first seen wins; duplicates
// across overlapping keyword walks are expected, not exceptional), sorts
// by publish time descending with first-seen order breaking ties, and
// caps the result to maxItems when maxItems is positive, keeping the
// newest items.
func Aggregate(records []model.FeedRecord, maxItems int) []model.FeedRecord {
	seen := make(map[string]bool, len(records))
	unique := make([]model.FeedRecord, 0, len(records))

	for _, r := range records {
		if seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		unique = append(unique, r)
	}

	// Stable keeps first-seen order on equal timestamps, which makes the
	// output deterministic across runs with identical input order.
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedAt.After(unique[j].PublishedAt)
	})

	if maxItems > 0 && len(unique) > maxItems {
		unique = unique[:maxItems]
	}

	return unique
}

package model

import "time"

// SourceStats summarizes one source's contribution to a build.
type SourceStats struct {
	// Source is the start URL or feed URL.
	Source string `json:"source"`

	// PagesWalked is the number of listing pages fetched (zero for feed
	// sources).
	PagesWalked int `json:"pages_walked"`

	// LinksFound is the number of new unique item links this source
	// contributed.
	LinksFound int `json:"links_found"`

	// Err records a walk-ending failure, if any. A failed walk still
	// leaves its accumulated links in the build.
	Err string `json:"error,omitempty"`
}

// BuildResult is the run state of a single pipeline invocation. It is
// created fresh per build and discarded once the feed document is written;
// nothing here persists across runs.
type BuildResult struct {
	// StartedAt is when the build began.
	StartedAt time.Time `json:"started_at"`

	// Links is the global, deduplicated discovery set across all walks,
	// in discovery order.
	Links []ItemLink `json:"links"`

	// Records maps canonical link to its extracted record.
	Records map[string]FeedRecord `json:"records"`

	// Ordered is the aggregated output sequence, filled by the aggregate
	// step: deduplicated, newest first, capped.
	Ordered []FeedRecord `json:"ordered"`

	// Sources collects per-source statistics.
	Sources []SourceStats `json:"sources"`

	// Skipped counts items dropped by the relevance check.
	Skipped int `json:"skipped"`

	// Failed counts items dropped by fetch or extraction failure.
	Failed int `json:"failed"`
}

// NewBuildResult creates an empty run state.
func NewBuildResult() *BuildResult {
	return &BuildResult{
		StartedAt: time.Now(),
		Records:   make(map[string]FeedRecord),
	}
}

// AddLinks appends links that are not already in the discovery set and
// returns how many were new. Uniqueness is judged globally, across all
// walks, by normalized URL.
func (b *BuildResult) AddLinks(links []ItemLink) int {
	seen := make(map[string]bool, len(b.Links))
	for _, l := range b.Links {
		seen[l.URL] = true
	}

	added := 0
	for _, l := range links {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		l.Ordinal = len(b.Links)
		b.Links = append(b.Links, l)
		added++
	}
	return added
}

package model

import (
	"crypto/sha1" //nolint:gosec // Not used for security; guid convention is sha1(link)
	"encoding/hex"
	"time"
)

// FeedRecord is the unit the pipeline produces and the serializer consumes.
type FeedRecord struct {
	// Title is the extracted headline. Never empty; extraction falls back
	// to "Untitled" when no source yields one.
	Title string `json:"title"`

	// Link is the normalized absolute URL of the item and its unique key.
	Link string `json:"link"`

	// GUID identifies the item to downstream feed readers. It is derived
	// from Link alone, so repeated builds over the same link always agree.
	GUID string `json:"guid"`

	// PublishedAt is the publish timestamp, or the fetch time when no
	// machine-readable date could be recovered.
	PublishedAt time.Time `json:"published_at"`

	// Summary is a short plain-text description. May be empty.
	Summary string `json:"summary,omitempty"`

	// ImageURL is an optional image associated with the item.
	ImageURL string `json:"image_url,omitempty"`
}

// GUID returns the deterministic identifier for a canonical link:
// the hex sha1 of the link bytes. This matches the convention downstream
// readers already track "seen" items by, so it must never change.
func GUID(link string) string {
	sum := sha1.Sum([]byte(link)) //nolint:gosec // Content addressing, not cryptography
	return hex.EncodeToString(sum[:])
}

// NewFeedRecord builds a record for the given canonical link with its
// guid filled in.
func NewFeedRecord(link string) FeedRecord {
	return FeedRecord{
		Link: link,
		GUID: GUID(link),
	}
}

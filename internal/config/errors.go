package config

import "errors"

// Configuration validation errors. Package-level sentinels so callers can
// use errors.Is for programmatic handling while still getting readable
// messages.
var (
	// ErrNoSource is returned when the feed definition names no sources.
	// A build without at least one listing or feed URL has nothing to do.
	ErrNoSource = errors.New("no source specified: the feed definition needs at least one listing or feed URL")

	// ErrInvalidSourceType is returned for a source whose type is neither
	// "listing" nor "feed".
	ErrInvalidSourceType = errors.New(`invalid source type: must be "listing" or "feed"`)

	// ErrSourceWithoutURL is returned for a source entry missing its URL.
	ErrSourceWithoutURL = errors.New("source entry is missing a url")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive; zero would fail every fetch immediately.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	// The cap is the walk's last-resort termination guarantee.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxItems is returned when the item cap is negative.
	// Zero means unlimited.
	ErrInvalidMaxItems = errors.New("invalid max items: must be non-negative")

	// ErrInvalidDelay is returned when the inter-request delay is
	// negative; use 0 for no pacing.
	ErrInvalidDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body-size cap is
	// negative; use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)

package model

import (
	"fmt"
	"net/url"
	"strings"
)

// ItemLink is a discovered, not-yet-fetched candidate item.
// Two ItemLinks with equal normalized URLs are the same entity, so URLs
// must pass through NormalizeURL before being compared or stored.
type ItemLink struct {
	// URL is the normalized absolute URL of the item.
	URL string `json:"url"`

	// FoundOn is the listing page the link was discovered on.
	FoundOn string `json:"found_on"`

	// Keyword is the relevance keyword of the source that discovered
	// the link. Empty means the definition-level keyword applies.
	Keyword string `json:"keyword,omitempty"`

	// Ordinal is the global discovery order across all walks, starting at 0.
	// It is the tie-breaker that keeps output ordering deterministic.
	Ordinal int `json:"ordinal"`
}

// NormalizeURL resolves raw against base (base may be nil for absolute
// input) and returns the canonical absolute form used as item identity:
// lowercased scheme and host, default ports stripped, fragment dropped.
// The operation is idempotent: normalizing an already-normalized URL
// returns it unchanged.
func NormalizeURL(raw string, base *url.URL) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("relative URL %q without base", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Default ports add nothing to identity
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// Fragments are client-side only and would split identities
	u.Fragment = ""

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

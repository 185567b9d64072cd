// Package crawler walks paginated listing pages and emits the set of
// discovered item links.
//
// The upstream source offers no page count and no stable markup contract,
// so the walker treats pagination as a bounded probe: follow an explicit
// "next" reference when one exists, otherwise increment a page-index query
// parameter, and stop at the first page that yields zero new unique links,
// at the first fetch failure, or at a hard page cap, whichever comes
// first. A zero-new-links page is the canonical end-of-results signal,
// not an error.
package crawler

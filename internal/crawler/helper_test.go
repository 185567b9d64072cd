package crawler

import (
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/fetch"
)

// newTestFetcher returns a real fetch client with a short timeout,
// suitable for httptest servers.
func newTestFetcher() Fetcher {
	return fetch.NewClient(fetch.WithTimeout(5 * time.Second))
}

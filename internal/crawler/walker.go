package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// Fetcher retrieves a document by URL. It is satisfied by *fetch.Client;
// tests substitute their own implementations.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DefaultItemPattern matches GlobeNewswire-style press-release URLs.
// Listings link to plenty of unrelated pages (ads, category indexes,
// cross-links); only URLs of this structural shape are treated as items.
const DefaultItemPattern = `/news-release/`

// Walker walks one paginated listing and accumulates item links.
// A Walker is not restartable: each Walk call re-walks from scratch with
// fresh visited and accumulated sets.
type Walker struct {
	fetcher     Fetcher
	itemPattern *regexp.Regexp

	// maxPages is the hard cap on listing pages per walk, regardless of
	// server behavior.
	maxPages int

	// delay is the politeness pause between listing-page fetches.
	delay time.Duration

	// pageParam is the query parameter probed when the page declares no
	// explicit next reference.
	pageParam string

	logger *slog.Logger

	// stats describes the most recent Walk.
	stats WalkStats
}

// WalkStats reports what the most recent Walk did.
type WalkStats struct {
	// PagesWalked is the number of listing pages fetched.
	PagesWalked int

	// LinksFound is the number of unique item links discovered.
	LinksFound int
}

// Option configures a Walker.
type Option func(*Walker)

// WithMaxPages sets the hard page cap per walk.
func WithMaxPages(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxPages = n
		}
	}
}

// WithDelay sets the pause between listing-page fetches.
func WithDelay(d time.Duration) Option {
	return func(w *Walker) {
		w.delay = d
	}
}

// WithPageParam sets the query parameter used for page-index probing.
func WithPageParam(name string) Option {
	return func(w *Walker) {
		if name != "" {
			w.pageParam = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a Walker that recognizes item links by itemPattern.
// An empty pattern falls back to DefaultItemPattern.
func NewWalker(fetcher Fetcher, itemPattern string, opts ...Option) (*Walker, error) {
	if itemPattern == "" {
		itemPattern = DefaultItemPattern
	}
	re, err := regexp.Compile(itemPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid item pattern %q: %w", itemPattern, err)
	}

	w := &Walker{
		fetcher:     fetcher,
		itemPattern: re,
		maxPages:    25,
		delay:       time.Second,
		pageParam:   "page",
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w, nil
}

// Walk fetches listing pages starting at startURL and returns the item
// links discovered, in discovery order. The walk halts at the first page
// yielding zero new unique links, at the hard page cap, or at a fetch
// failure. A failure after the first page still returns the links
// accumulated so far along with the error; the result remains usable.
func (w *Walker) Walk(ctx context.Context, startURL string) ([]model.ItemLink, error) {
	current, err := model.NormalizeURL(startURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	visited := make(map[string]bool)
	accumulated := make(map[string]bool)
	links := make([]model.ItemLink, 0)

	w.stats = WalkStats{}
	defer func() { w.stats.LinksFound = len(links) }()

	for pageCount := 0; pageCount < w.maxPages; pageCount++ {
		if err := ctx.Err(); err != nil {
			return links, err
		}
		if visited[current] {
			break
		}
		visited[current] = true

		body, err := w.fetcher.Fetch(ctx, current)
		if err != nil {
			if pageCount == 0 {
				return links, fmt.Errorf("listing walk failed on first page: %w", err)
			}
			// Later pages: a failed probe is the end of results
			w.logger.Debug("listing page fetch failed, ending walk",
				"url", current, "page", pageCount, "error", err)
			return links, nil
		}
		w.stats.PagesWalked++

		parser, err := newListingParser(current, w.itemPattern)
		if err != nil {
			return links, fmt.Errorf("listing walk: %w", err)
		}
		page, err := parser.parse(strings.NewReader(body))
		if err != nil {
			// x/net/html almost never fails, but treat it like a dead page
			w.logger.Warn("listing page unparseable, ending walk", "url", current, "error", err)
			return links, nil
		}

		newCount := 0
		for _, itemURL := range page.ItemURLs {
			if accumulated[itemURL] {
				continue
			}
			accumulated[itemURL] = true
			links = append(links, model.ItemLink{
				URL:     itemURL,
				FoundOn: current,
				Ordinal: len(links),
			})
			newCount++
		}

		w.logger.Debug("walked listing page",
			"url", current, "page", pageCount, "newLinks", newCount)

		// Canonical end-of-results signal
		if newCount == 0 {
			break
		}

		next := w.nextPage(current, page)
		if next == "" || visited[next] {
			break
		}
		current = next

		if w.delay > 0 {
			select {
			case <-ctx.Done():
				return links, ctx.Err()
			case <-time.After(w.delay):
			}
		}
	}

	return links, nil
}

// Stats returns statistics for the most recent Walk.
func (w *Walker) Stats() WalkStats {
	return w.stats
}

// nextPage determines the following listing page: an explicit next
// reference wins; otherwise the page-index query parameter is incremented.
// The caller only asks when the current page yielded new links.
func (w *Walker) nextPage(current string, page *ListingPage) string {
	if page.NextURL != "" {
		return page.NextURL
	}
	return w.incrementPageParam(current)
}

// incrementPageParam bumps the page-index query parameter on the current
// URL. A URL without the parameter is treated as page 1.
func (w *Walker) incrementPageParam(current string) string {
	u, err := url.Parse(current)
	if err != nil {
		return ""
	}

	q := u.Query()
	pageNum := 1
	if raw := q.Get(w.pageParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return ""
		}
		pageNum = n
	}

	q.Set(w.pageParam, strconv.Itoa(pageNum+1))
	u.RawQuery = q.Encode()

	normalized, err := model.NormalizeURL(u.String(), nil)
	if err != nil {
		return ""
	}
	return normalized
}

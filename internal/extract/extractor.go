package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// ErrSkipped reports that a document was fetched successfully but failed
// the relevance check: the configured subject term appears nowhere in it.
// This filters listing noise (ads, unrelated cross-links) that slipped
// past the walker's structural URL match.
var ErrSkipped = errors.New("document failed relevance check")

// DefaultSummaryLimit bounds the summary length in runes.
const DefaultSummaryLimit = 500

// downloadResourcePattern matches image URLs of the "download resource"
// shape newswire sites use for attached media.
var downloadResourcePattern = regexp.MustCompile(`(?i)/resource/download/`)

// Fetcher retrieves a document by URL. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// page bundles everything a field source may inspect: the raw document,
// its parsed form, the structured-data block, and the fetch time.
type page struct {
	url       string
	raw       string
	doc       *goquery.Document
	article   *newsArticle
	fetchedAt time.Time
}

// A source derives one candidate field value from a fetched page.
// Sources are evaluated left to right; the first non-empty value wins.
type source func(*page) string

// firstNonEmpty evaluates a fallback chain.
func firstNonEmpty(p *page, chain []source) string {
	for _, src := range chain {
		if v := strings.TrimSpace(src(p)); v != "" {
			return v
		}
	}
	return ""
}

// Extractor turns one item URL into a normalized feed record.
type Extractor struct {
	fetcher      Fetcher
	keyword      string
	summaryLimit int
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSummaryLimit sets the summary truncation bound in runes.
func WithSummaryLimit(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.summaryLimit = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor. keyword is the subject term for the relevance
// check; when empty, every fetched document is considered relevant.
func New(fetcher Fetcher, keyword string, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher:      fetcher,
		keyword:      keyword,
		summaryLimit: DefaultSummaryLimit,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Extract fetches itemURL and resolves each record field through its
// fallback chain. It fails with ErrSkipped only when the document is
// irrelevant; missing metadata merely downgrades a field to its fallback.
func (e *Extractor) Extract(ctx context.Context, itemURL string) (model.FeedRecord, error) {
	link, err := model.NormalizeURL(itemURL, nil)
	if err != nil {
		return model.FeedRecord{}, fmt.Errorf("extract: %w", err)
	}

	raw, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return model.FeedRecord{}, err
	}

	if !e.relevant(raw) {
		return model.FeedRecord{}, fmt.Errorf("%w: %q not found in %s", ErrSkipped, e.keyword, link)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		// goquery tolerates broken markup; a hard failure here means the
		// body was not HTML at all, which is an unusable item
		return model.FeedRecord{}, fmt.Errorf("parse %s: %w", link, err)
	}

	p := &page{
		url:       link,
		raw:       raw,
		doc:       doc,
		article:   parseJSONLD(doc),
		fetchedAt: time.Now(),
	}

	record := model.NewFeedRecord(link)
	record.Title = e.title(p)
	record.PublishedAt = e.publishedAt(p)
	record.Summary = e.summary(p)
	record.ImageURL = e.image(p)

	return record, nil
}

// relevant is the heuristic subject check: a case-insensitive substring
// test over the raw document. Stricter matchers may replace it, but the
// policy stands: fail open on missing metadata, fail closed only here.
func (e *Extractor) relevant(raw string) bool {
	if e.keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(raw), strings.ToLower(e.keyword))
}

// title resolves: structured-data headline, page-level title metadata,
// first heading, literal "Untitled".
func (e *Extractor) title(p *page) string {
	got := firstNonEmpty(p, []source{
		func(p *page) string { return p.article.headline() },
		func(p *page) string { return metaContent(p.doc, `meta[property="og:title"]`) },
		func(p *page) string { return p.doc.Find("title").First().Text() },
		func(p *page) string { return p.doc.Find("h1").First().Text() },
	})
	if got == "" {
		e.logger.Debug("no title source yielded a value", "url", p.url)
		return "Untitled"
	}
	return normalizeSpace(got)
}

// publishedAt resolves: structured-data date, published-time meta, any
// machine-readable datetime attribute, fetch time. A missing date never
// discards an otherwise-valid item.
func (e *Extractor) publishedAt(p *page) time.Time {
	raw := firstNonEmpty(p, []source{
		func(p *page) string { return p.article.published() },
		func(p *page) string { return metaContent(p.doc, `meta[property="article:published_time"]`) },
		func(p *page) string {
			val, _ := p.doc.Find("time[datetime]").First().Attr("datetime")
			return val
		},
	})

	if raw != "" {
		if ts, ok := parseTimestamp(raw); ok {
			return ts
		}
		e.logger.Debug("unparseable publish timestamp", "url", p.url, "value", raw)
	}
	return p.fetchedAt
}

// summary resolves: structured-data description, description meta, first
// body paragraph. The result is whitespace-normalized and length-bounded;
// empty is acceptable.
func (e *Extractor) summary(p *page) string {
	got := firstNonEmpty(p, []source{
		func(p *page) string { return p.article.describe() },
		func(p *page) string { return metaContent(p.doc, `meta[name="description"]`) },
		func(p *page) string { return metaContent(p.doc, `meta[property="og:description"]`) },
		func(p *page) string { return p.doc.Find("article p, body p").First().Text() },
	})
	return truncate(normalizeSpace(got), e.summaryLimit)
}

// image resolves: og-style image meta, structured-data image, first image
// whose source matches the download-resource shape. The winning value is
// resolved against the page URL; a value that cannot form an absolute
// http(s) URL is discarded. Absent is fine.
func (e *Extractor) image(p *page) string {
	got := firstNonEmpty(p, []source{
		func(p *page) string { return metaContent(p.doc, `meta[property="og:image"]`) },
		func(p *page) string { return p.article.imageURL() },
		func(p *page) string {
			var found string
			p.doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				src, _ := s.Attr("src")
				if downloadResourcePattern.MatchString(src) {
					found = src
					return false
				}
				return true
			})
			return found
		},
	})
	if got == "" {
		return ""
	}

	base, err := url.Parse(p.url)
	if err != nil {
		return ""
	}
	resolved, err := model.NormalizeURL(got, base)
	if err != nil {
		e.logger.Debug("unusable image URL", "url", p.url, "value", got)
		return ""
	}
	return resolved
}

// headline, published, and describe are nil-safe accessors so chain
// entries stay one-liners.
func (a *newsArticle) headline() string {
	if a == nil {
		return ""
	}
	return a.Headline
}

func (a *newsArticle) published() string {
	if a == nil {
		return ""
	}
	return a.DatePublished
}

func (a *newsArticle) describe() string {
	if a == nil {
		return ""
	}
	return a.Description
}

// metaContent returns the content attribute of the first matching meta tag.
func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return content
}

// timestampLayouts are tried in order when parsing publish dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// parseTimestamp parses the machine-readable date formats observed in the
// wild.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// normalizeSpace collapses all whitespace runs to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate bounds s to limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wirefeed-dev/wirefeed/internal/aggregate"
	"github.com/wirefeed-dev/wirefeed/internal/config"
	"github.com/wirefeed-dev/wirefeed/internal/database"
	"github.com/wirefeed-dev/wirefeed/internal/extract"
	"github.com/wirefeed-dev/wirefeed/internal/feed"
	"github.com/wirefeed-dev/wirefeed/internal/fetch"
	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// DiscoverStep walks all listing sources and merges their item links
// into the build's global discovery set. Walks run concurrently, but
// merging happens only after every walk has finished, in source order,
// so that discovery ordinals are deterministic.
type DiscoverStep struct {
	// walker runs the concurrent listing walks.
	walker *BatchWalker

	// definition supplies the sources and their keywords.
	definition *config.Definition

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a discovery step over the definition's
// listing sources.
func NewDiscoverStep(walker *BatchWalker, definition *config.Definition, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		walker:     walker,
		definition: definition,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discovery step.
func (s *DiscoverStep) Do(ctx context.Context, result *model.BuildResult) error {
	sources := make([]config.Source, 0, len(s.definition.Sources))
	for _, src := range s.definition.Sources {
		if src.Kind() == config.SourceListing {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		s.logger.Debug("no listing sources configured")
		return nil
	}

	walks, err := s.walker.WalkAll(ctx, sources)
	if err != nil {
		return err
	}

	for i, walk := range walks {
		keyword := s.definition.SourceKeyword(sources[i])
		for j := range walk.Links {
			walk.Links[j].Keyword = keyword
		}

		added := result.AddLinks(walk.Links)
		stats := walk.Stats
		// A link found by two searches counts for whichever merged first.
		stats.LinksFound = added
		result.Sources = append(result.Sources, stats)

		s.logger.Info("source merged",
			"source", stats.Source,
			"pages_walked", stats.PagesWalked,
			"new_links", added,
		)
	}

	return nil
}

// FeedFetchStep pulls items from sources that are already RSS or Atom
// feeds. Feed items carry their own metadata, so they land directly in
// the record set and skip the extraction step.
type FeedFetchStep struct {
	// parser handles RSS, Atom, and JSON feed formats.
	parser *gofeed.Parser

	// definition supplies the sources and their keywords.
	definition *config.Definition

	// logger for structured logging.
	logger *slog.Logger
}

// FeedFetchStepOption configures a FeedFetchStep.
type FeedFetchStepOption func(*FeedFetchStep)

// WithFeedLogger sets a custom logger for the feed fetch step.
func WithFeedLogger(logger *slog.Logger) FeedFetchStepOption {
	return func(s *FeedFetchStep) {
		s.logger = logger
	}
}

// WithFeedUserAgent sets the User-Agent header for feed requests.
func WithFeedUserAgent(userAgent string) FeedFetchStepOption {
	return func(s *FeedFetchStep) {
		s.parser.UserAgent = userAgent
	}
}

// NewFeedFetchStep creates a feed fetching step over the definition's
// feed sources.
func NewFeedFetchStep(definition *config.Definition, opts ...FeedFetchStepOption) *FeedFetchStep {
	s := &FeedFetchStep{
		parser:     gofeed.NewParser(),
		definition: definition,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FeedFetchStep) Name() string {
	return "feed_fetch"
}

// Do executes the feed fetch step.
func (s *FeedFetchStep) Do(ctx context.Context, result *model.BuildResult) error {
	for _, src := range s.definition.Sources {
		if src.Kind() != config.SourceFeed {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stats := model.SourceStats{Source: src.URL}
		parsed, err := s.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			// A dead feed source costs its items, not the build
			s.logger.Warn("feed source failed", "source", src.URL, "error", err)
			stats.Err = err.Error()
			result.Sources = append(result.Sources, stats)
			continue
		}

		keyword := s.definition.SourceKeyword(src)
		for _, item := range parsed.Items {
			rec, ok := s.convertItem(item, keyword, src.URL)
			if !ok {
				result.Skipped++
				continue
			}

			added := result.AddLinks([]model.ItemLink{{
				URL:     rec.Link,
				FoundOn: src.URL,
				Keyword: keyword,
			}})
			if added == 0 {
				continue
			}
			result.Records[rec.Link] = rec
			stats.LinksFound++
		}

		result.Sources = append(result.Sources, stats)
		s.logger.Info("feed source merged",
			"source", src.URL,
			"new_items", stats.LinksFound,
		)
	}

	return nil
}

// convertItem turns one feed entry into a feed record. Entries without
// a usable link, and entries failing the relevance check, are rejected.
func (s *FeedFetchStep) convertItem(item *gofeed.Item, keyword, source string) (model.FeedRecord, bool) {
	link, err := model.NormalizeURL(item.Link, nil)
	if err != nil {
		s.logger.Debug("feed item without usable link", "source", source, "error", err)
		return model.FeedRecord{}, false
	}

	if keyword != "" {
		haystack := strings.ToLower(item.Title + " " + item.Description)
		if !strings.Contains(haystack, strings.ToLower(keyword)) {
			return model.FeedRecord{}, false
		}
	}

	rec := model.NewFeedRecord(link)
	rec.Title = item.Title
	rec.Summary = item.Description
	if item.PublishedParsed != nil {
		rec.PublishedAt = *item.PublishedParsed
	} else {
		rec.PublishedAt = time.Now()
	}
	if item.Image != nil {
		rec.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				rec.ImageURL = enc.URL
				break
			}
		}
	}

	return rec, true
}

// ExtractStep fetches every discovered item page and extracts its feed
// record. Item fetches are strictly sequential and paced by the
// politeness delay; one bad item costs only itself.
type ExtractStep struct {
	// fetcher retrieves item pages.
	fetcher extract.Fetcher

	// defaultKeyword applies to links without a source keyword.
	defaultKeyword string

	// delay is the politeness pause between item fetches.
	delay time.Duration

	// summaryLimit caps summary length in runes; zero keeps the default.
	summaryLimit int

	// logger for structured logging.
	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractDelay sets the pause between item fetches.
func WithExtractDelay(d time.Duration) ExtractStepOption {
	return func(s *ExtractStep) {
		s.delay = d
	}
}

// WithExtractSummaryLimit caps extracted summaries at n runes.
func WithExtractSummaryLimit(n int) ExtractStepOption {
	return func(s *ExtractStep) {
		s.summaryLimit = n
	}
}

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extraction step.
func NewExtractStep(fetcher extract.Fetcher, defaultKeyword string, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		fetcher:        fetcher,
		defaultKeyword: defaultKeyword,
		delay:          config.DefaultDelay,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(ctx context.Context, result *model.BuildResult) error {
	// One extractor per distinct keyword; most builds use exactly one.
	extractors := make(map[string]*extract.Extractor)
	extractorFor := func(keyword string) *extract.Extractor {
		if keyword == "" {
			keyword = s.defaultKeyword
		}
		if e, ok := extractors[keyword]; ok {
			return e
		}
		opts := []extract.Option{extract.WithLogger(s.logger)}
		if s.summaryLimit > 0 {
			opts = append(opts, extract.WithSummaryLimit(s.summaryLimit))
		}
		e := extract.New(s.fetcher, keyword, opts...)
		extractors[keyword] = e
		return e
	}

	first := true
	for _, link := range result.Links {
		// Feed sources deliver their records pre-extracted
		if _, ok := result.Records[link.URL]; ok {
			continue
		}

		if !first && s.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.delay):
			}
		}
		first = false

		rec, err := extractorFor(link.Keyword).Extract(ctx, link.URL)
		switch {
		case errors.Is(err, extract.ErrSkipped):
			s.logger.Debug("item not relevant", "url", link.URL)
			result.Skipped++
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("item extraction failed", "url", link.URL, "error", err)
			result.Failed++
		default:
			result.Records[rec.Link] = rec
		}
	}

	s.logger.Info("extraction complete",
		"records", len(result.Records),
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return nil
}

// AggregateStep orders the extracted records into the final feed
// sequence: deduplicated, newest first, capped at the item limit.
type AggregateStep struct {
	// maxItems caps the output feed; zero or less means uncapped.
	maxItems int

	// logger for structured logging.
	logger *slog.Logger
}

// AggregateStepOption configures an AggregateStep.
type AggregateStepOption func(*AggregateStep)

// WithAggregateLogger sets a custom logger for the aggregate step.
func WithAggregateLogger(logger *slog.Logger) AggregateStepOption {
	return func(s *AggregateStep) {
		s.logger = logger
	}
}

// NewAggregateStep creates an aggregation step with the given item cap.
func NewAggregateStep(maxItems int, opts ...AggregateStepOption) *AggregateStep {
	s := &AggregateStep{
		maxItems: maxItems,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return "aggregate"
}

// Do executes the aggregation step.
func (s *AggregateStep) Do(_ context.Context, result *model.BuildResult) error {
	// Records are gathered in discovery order so that the stable sort's
	// tie-breaking stays deterministic across runs.
	records := make([]model.FeedRecord, 0, len(result.Records))
	for _, link := range result.Links {
		if rec, ok := result.Records[link.URL]; ok {
			records = append(records, rec)
		}
	}

	result.Ordered = aggregate.Aggregate(records, s.maxItems)

	s.logger.Info("aggregation complete",
		"input", len(records),
		"output", len(result.Ordered),
	)

	return nil
}

// ArchiveStep appends the build's output to the SQLite archive. The
// archive is strictly write-only from the pipeline's point of view, so
// archival failure is logged and never fails the build.
type ArchiveStep struct {
	// db is the archive; nil disables archival.
	db *database.FeedDB

	// logger for structured logging.
	logger *slog.Logger
}

// ArchiveStepOption configures an ArchiveStep.
type ArchiveStepOption func(*ArchiveStep)

// WithArchiveLogger sets a custom logger for the archive step.
func WithArchiveLogger(logger *slog.Logger) ArchiveStepOption {
	return func(s *ArchiveStep) {
		s.logger = logger
	}
}

// NewArchiveStep creates an archival step writing to db.
func NewArchiveStep(db *database.FeedDB, opts ...ArchiveStepOption) *ArchiveStep {
	s := &ArchiveStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do executes the archive step.
func (s *ArchiveStep) Do(ctx context.Context, result *model.BuildResult) error {
	if s.db == nil {
		s.logger.Debug("archive disabled")
		return nil
	}

	if err := s.db.RecordBuild(ctx, result); err != nil {
		s.logger.Warn("archival failed", "error", err)
		return nil
	}

	s.logger.Info("build archived", "items", len(result.Ordered))
	return nil
}

// WriteStep serializes the aggregated feed and writes it to the
// configured destinations.
type WriteStep struct {
	// writer produces the output documents.
	writer feed.Writer

	// channel holds the feed's channel metadata.
	channel feed.Channel

	// logger for structured logging.
	logger *slog.Logger
}

// WriteStepOption configures a WriteStep.
type WriteStepOption func(*WriteStep)

// WithWriteLogger sets a custom logger for the write step.
func WithWriteLogger(logger *slog.Logger) WriteStepOption {
	return func(s *WriteStep) {
		s.logger = logger
	}
}

// NewWriteStep creates a write step for the given channel and writer.
func NewWriteStep(writer feed.Writer, channel feed.Channel, opts ...WriteStepOption) *WriteStep {
	s := &WriteStep{
		writer:  writer,
		channel: channel,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do executes the write step.
func (s *WriteStep) Do(_ context.Context, result *model.BuildResult) error {
	n, err := s.writer.Write(s.channel, result)
	if err != nil {
		return err
	}

	s.logger.Info("feed written",
		"items", len(result.Ordered),
		"bytes", n,
	)
	return nil
}

// DefaultPipeline creates the standard build pipeline: discover,
// feed fetch, extract, aggregate, archive, write. The archive db may be
// nil to disable archival. The config must already be validated.
func DefaultPipeline(cfg *config.Config, writer feed.Writer, db *database.FeedDB, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.UserAgent))
	}
	client := fetch.NewClient(fetchOpts...)

	walker := NewBatchWalker(client,
		WithBatchMaxPages(cfg.MaxPages),
		WithBatchDelay(cfg.Delay),
		WithBatchLogger(logger),
	)

	feedOpts := []FeedFetchStepOption{WithFeedLogger(logger)}
	if cfg.UserAgent != "" {
		feedOpts = append(feedOpts, WithFeedUserAgent(cfg.UserAgent))
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewDiscoverStep(walker, cfg.Definition, WithDiscoverLogger(logger)),
		NewFeedFetchStep(cfg.Definition, feedOpts...),
		NewExtractStep(client, cfg.Definition.Keyword,
			WithExtractDelay(cfg.Delay),
			WithExtractLogger(logger),
		),
		NewAggregateStep(cfg.MaxItems, WithAggregateLogger(logger)),
		NewArchiveStep(db, WithArchiveLogger(logger)),
		NewWriteStep(writer, cfg.Definition.Channel, WithWriteLogger(logger)),
	)

	return p
}

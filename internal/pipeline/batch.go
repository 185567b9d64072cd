package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wirefeed-dev/wirefeed/internal/config"
	"github.com/wirefeed-dev/wirefeed/internal/crawler"
	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// SourceWalk is one listing source's walk outcome: the item links it
// discovered, in discovery order, and its statistics.
type SourceWalk struct {
	Links []model.ItemLink
	Stats model.SourceStats
}

// BatchWalker walks multiple listing sources concurrently. Each source
// gets its own Walker so walks never share visited state; results are
// returned in source order so that merging stays deterministic.
type BatchWalker struct {
	// fetcher retrieves listing pages.
	fetcher crawler.Fetcher

	// maxPages is the per-walk page cap for sources without an override.
	maxPages int

	// delay is the politeness pause between listing-page fetches.
	delay time.Duration

	// concurrency is the maximum number of concurrent walks.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchWalker.
type BatchOption func(*BatchWalker)

// WithBatchLogger sets a custom logger for batch walking.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchWalker) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent walks.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchWalker) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchMaxPages sets the default per-walk page cap.
func WithBatchMaxPages(n int) BatchOption {
	return func(b *BatchWalker) {
		if n > 0 {
			b.maxPages = n
		}
	}
}

// WithBatchDelay sets the pause between listing-page fetches.
func WithBatchDelay(d time.Duration) BatchOption {
	return func(b *BatchWalker) {
		b.delay = d
	}
}

// NewBatchWalker creates a BatchWalker over the given fetcher.
func NewBatchWalker(fetcher crawler.Fetcher, opts ...BatchOption) *BatchWalker {
	bw := &BatchWalker{
		fetcher:     fetcher,
		maxPages:    config.DefaultMaxPages,
		delay:       config.DefaultDelay,
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(bw)
	}

	if bw.logger == nil {
		bw.logger = slog.Default()
	}

	return bw
}

// WalkAll walks every source concurrently and returns one SourceWalk
// per source, in source order. A source whose walk fails still returns
// the links it accumulated, with the failure recorded in its stats; the
// error return reports cancellation only.
func (bw *BatchWalker) WalkAll(ctx context.Context, sources []config.Source) ([]SourceWalk, error) {
	bw.logger.Info("walking listing sources",
		"total_sources", len(sources),
		"concurrency", bw.concurrency,
	)

	startTime := time.Now()

	// Indexed writes keep results in source order without locking.
	results := make([]SourceWalk, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bw.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			results[i] = bw.walkSource(ctx, src)
			return nil
		})
	}

	err := g.Wait()

	bw.logger.Info("listing walks complete",
		"total_sources", len(sources),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// walkSource runs one source's walk, folding any failure into the stats.
func (bw *BatchWalker) walkSource(ctx context.Context, src config.Source) SourceWalk {
	result := SourceWalk{Stats: model.SourceStats{Source: src.URL}}

	maxPages := bw.maxPages
	if src.MaxPages > 0 {
		maxPages = src.MaxPages
	}

	walker, err := crawler.NewWalker(bw.fetcher, src.ItemPattern,
		crawler.WithMaxPages(maxPages),
		crawler.WithDelay(bw.delay),
		crawler.WithLogger(bw.logger),
	)
	if err != nil {
		result.Stats.Err = err.Error()
		return result
	}

	links, err := walker.Walk(ctx, src.URL)
	result.Links = links
	result.Stats.PagesWalked = walker.Stats().PagesWalked
	result.Stats.LinksFound = len(links)
	if err != nil {
		bw.logger.Warn("listing walk failed",
			"source", src.URL,
			"error", err,
		)
		result.Stats.Err = err.Error()
	}

	return result
}

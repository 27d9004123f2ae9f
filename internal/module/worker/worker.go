// Package worker runs queued scrape jobs under a bounded pool and
// pushes accepted reviews to the configured indexers.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/project-tktt/review-crawler/internal/common/dedup"
	"github.com/project-tktt/review-crawler/internal/common/indexer"
	"github.com/project-tktt/review-crawler/internal/domain"
	"github.com/project-tktt/review-crawler/internal/module"
	"github.com/project-tktt/review-crawler/internal/queue"
)

// Worker consumes scrape jobs and processes them concurrently, at most
// `concurrency` jobs in flight. Each job is crawled, filtered against
// the cross-run seen store (when configured), then bulk-indexed.
type Worker struct {
	crawler     *module.Crawler
	registry    *module.Registry
	seen        *dedup.SeenStore // optional, nil disables cross-run dedup
	indexers    []indexer.Indexer
	sem         *semaphore.Weighted
	concurrency int64
}

// New creates a worker. A nil seen store disables cross-run
// deduplication; jobs still dedup within themselves.
func New(crawler *module.Crawler, registry *module.Registry, seen *dedup.SeenStore, indexers []indexer.Indexer, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Worker{
		crawler:     crawler,
		registry:    registry,
		seen:        seen,
		indexers:    indexers,
		sem:         semaphore.NewWeighted(int64(concurrency)),
		concurrency: int64(concurrency),
	}
}

// Run consumes jobs until ctx is cancelled, then waits for in-flight
// jobs to drain before returning.
func (w *Worker) Run(ctx context.Context, consumer *queue.Consumer) error {
	err := consumer.Run(ctx, func(job domain.ScrapeJob) error {
		if acqErr := w.sem.Acquire(ctx, 1); acqErr != nil {
			return acqErr
		}
		go func() {
			defer w.sem.Release(1)
			if procErr := w.Process(ctx, job); procErr != nil {
				log.Error().Err(procErr).
					Str("company", job.CompanyName).
					Str("source", string(job.Source)).
					Msg("job processing failed")
			}
		}()
		return nil
	})

	// Drain: once we can take every permit, nothing is in flight.
	if acqErr := w.sem.Acquire(context.Background(), w.concurrency); acqErr == nil {
		w.sem.Release(w.concurrency)
	}
	return err
}

// Process runs one job end to end: crawl, cross-run filter, index.
// Partial results from a failed crawl are still indexed so a retry of
// the same window does not re-ingest them.
func (w *Worker) Process(ctx context.Context, job domain.ScrapeJob) error {
	ad, err := w.registry.ForSource(job.Source)
	if err != nil {
		return err
	}

	result, crawlErr := w.crawler.Run(ctx, job, ad)
	if result == nil {
		return crawlErr
	}

	// Index even when the crawl was cut short: partial results are
	// valid and marking them seen keeps a retry from re-ingesting them.
	ctx = context.WithoutCancel(ctx)

	fresh, err := w.filterSeen(ctx, result.Reviews)
	if err != nil {
		return fmt.Errorf("seen filter: %w", err)
	}

	if len(fresh) > 0 {
		for _, idx := range w.indexers {
			if err := idx.BulkIndex(ctx, job.CompanyName, fresh); err != nil {
				return fmt.Errorf("index reviews: %w", err)
			}
		}
		if w.seen != nil {
			if err := w.seen.MarkSeenBatch(ctx, fresh); err != nil {
				return fmt.Errorf("mark seen: %w", err)
			}
		}
	}

	log.Info().
		Str("company", job.CompanyName).
		Str("source", string(job.Source)).
		Str("status", string(result.Status)).
		Int("collected", result.ScrapedCount).
		Int("indexed", len(fresh)).
		Msg("job processed")

	return crawlErr
}

func (w *Worker) filterSeen(ctx context.Context, reviews []domain.Review) ([]domain.Review, error) {
	if w.seen == nil {
		return reviews, nil
	}
	fresh := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		seen, err := w.seen.IsSeen(ctx, r)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, r)
		}
	}
	return fresh, nil
}

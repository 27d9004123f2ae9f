package module

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/common/dedup"
	"github.com/project-tktt/review-crawler/internal/common/fetcher"
	"github.com/project-tktt/review-crawler/internal/common/normalizer"
	"github.com/project-tktt/review-crawler/internal/domain"
	"github.com/project-tktt/review-crawler/internal/observability"
)

// ErrCancelled marks a job stopped by its context. Partial results
// are returned alongside it.
var ErrCancelled = errors.New("job cancelled")

// ErrOrderViolation marks a newest-first source whose listing turned
// out not to be newest-first. Boundary stop would silently truncate
// results in that case, so the job fails loudly instead.
var ErrOrderViolation = errors.New("source ordering violation: listing is not newest-first")

// Config holds crawl pacing and safety knobs.
type Config struct {
	// MaxPages caps total pages per job. 0 means the default budget;
	// negative means unbounded (exhaustion/boundary are the only stops).
	MaxPages int
	// PageDelay is the base delay after each successful page. A random
	// jitter of up to PageDelay/2 is added. Defaults to 2s; keeping it
	// non-zero is a requirement for continued access, not a tuning knob.
	PageDelay time.Duration
	// VerifyOrder asserts date monotonicity on newest-first sources
	// and fails the job instead of silently truncating.
	VerifyOrder bool
}

const defaultMaxPages = 1000

// Crawler is the pagination controller. It drives fetch → parse →
// classify for one source until a terminal state, owning every
// control-flow decision; the fetcher and adapter stay pluggable.
type Crawler struct {
	fetcher fetcher.Fetcher
	retry   fetcher.RetryPolicy
	norm    *normalizer.Normalizer
	cfg     Config
}

// NewCrawler creates a controller around a fetch session.
func NewCrawler(f fetcher.Fetcher, norm *normalizer.Normalizer, retry fetcher.RetryPolicy, cfg Config) *Crawler {
	if cfg.MaxPages == 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = 2 * time.Second
	}
	return &Crawler{fetcher: f, norm: norm, retry: retry, cfg: cfg}
}

type crawlState int

const (
	stateFetching crawlState = iota
	stateParsing
	stateClassifying
	stateAdvancing
	stateStoppedBoundary
	stateStoppedExhausted
	stateStoppedError
)

// Run executes one scrape job against the given adapter. The returned
// result always carries everything accumulated so far, even when err
// is non-nil; err is non-nil exactly when the result status is Failed.
func (c *Crawler) Run(ctx context.Context, job domain.ScrapeJob, ad Adapter) (*domain.ScrapeResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	logger := log.With().
		Str("source", string(job.Source)).
		Str("company", job.CompanyName).
		Logger()

	sink := newResultSink()
	seen := dedup.NewSet()
	page := domain.PageRef{URL: ad.PageURL(job.CompanyName, 1), Index: 1}

	var (
		payload  []byte
		parsed   *ParsedPage
		runErr   error
		prevDate time.Time // newest date floor for order verification
	)

	st := stateFetching
	for {
		switch st {
		case stateFetching:
			if ctx.Err() != nil {
				runErr = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
				st = stateStoppedError
				continue
			}

			logger.Debug().Int("page", page.Index).Str("url", page.URL).Msg("fetching page")
			var err error
			payload, err = c.retry.Do(ctx, func() ([]byte, error) {
				return c.fetcher.Fetch(ctx, page)
			})
			if err != nil {
				if ctx.Err() != nil {
					runErr = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
				} else {
					runErr = fmt.Errorf("fetch page %d: %w", page.Index, err)
				}
				st = stateStoppedError
				continue
			}
			sink.stats.PagesFetched++
			observability.PagesFetched.WithLabelValues(string(job.Source)).Inc()
			st = stateParsing

		case stateParsing:
			var err error
			parsed, err = ad.ParsePage(payload)
			if err != nil {
				runErr = fmt.Errorf("page %d: %w", page.Index, err)
				st = stateStoppedError
				continue
			}
			if parsed.Product != nil && sink.product == nil {
				sink.product = parsed.Product
			}
			st = stateClassifying

		case stateClassifying:
			boundary := false
			for _, raw := range parsed.Reviews {
				rev, err := c.norm.Normalize(raw)
				if err != nil {
					// Unclassifiable without a date; dropped, counted,
					// never an abort.
					sink.stats.Unparseable++
					observability.ReviewsDropped.WithLabelValues(string(job.Source), "unparseable_date").Inc()
					continue
				}

				if c.cfg.VerifyOrder && ad.Ordering() == OrderNewestFirst {
					if !prevDate.IsZero() && rev.Date.After(prevDate) {
						runErr = fmt.Errorf("page %d: %w", page.Index, ErrOrderViolation)
						st = stateStoppedError
						break
					}
					prevDate = rev.Date
				}

				switch Classify(rev.Date, job.StartDate, job.EndDate) {
				case BeforeRange:
					sink.stats.OutOfRange++
					observability.ReviewsDropped.WithLabelValues(string(job.Source), "out_of_range").Inc()
					// Older than the window start. On a newest-first
					// source everything after this page is older still,
					// but the rest of this page may straddle the
					// boundary, so keep classifying it.
					if ad.Ordering() == OrderNewestFirst {
						boundary = true
					}
				case AfterRange:
					sink.stats.OutOfRange++
					observability.ReviewsDropped.WithLabelValues(string(job.Source), "out_of_range").Inc()
				case InRange:
					if seen.Seen(rev) {
						sink.stats.Duplicates++
						observability.ReviewsDropped.WithLabelValues(string(job.Source), "duplicate").Inc()
						continue
					}
					sink.add(rev)
					observability.ReviewsCollected.WithLabelValues(string(job.Source)).Inc()
				}
			}
			if st == stateStoppedError {
				continue
			}

			switch {
			case boundary:
				st = stateStoppedBoundary
			case !parsed.HasMore:
				st = stateStoppedExhausted
			default:
				st = stateAdvancing
			}

		case stateAdvancing:
			if c.cfg.MaxPages > 0 && page.Index >= c.cfg.MaxPages {
				logger.Warn().Int("pages", page.Index).Msg("page budget reached")
				st = stateStoppedExhausted
				continue
			}

			if !sleepCtx(ctx, c.pageDelay()) {
				runErr = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
				st = stateStoppedError
				continue
			}

			next := domain.PageRef{Index: page.Index + 1}
			if parsed.NextURL != "" {
				next.URL = parsed.NextURL
			} else {
				next.URL = ad.PageURL(job.CompanyName, next.Index)
			}
			page = next
			st = stateFetching

		case stateStoppedBoundary, stateStoppedExhausted:
			res := sink.finalize(false)
			logger.Info().
				Int("reviews", res.ScrapedCount).
				Int("pages", res.Stats.PagesFetched).
				Bool("boundary_stop", st == stateStoppedBoundary).
				Msg("scrape completed")
			observability.JobsFinished.WithLabelValues(string(job.Source), string(res.Status)).Inc()
			return res, nil

		case stateStoppedError:
			res := sink.finalize(true)
			logger.Error().Err(runErr).
				Int("reviews", res.ScrapedCount).
				Int("pages", res.Stats.PagesFetched).
				Msg("scrape failed, returning partial results")
			observability.JobsFinished.WithLabelValues(string(job.Source), string(res.Status)).Inc()
			return res, runErr
		}
	}
}

func (c *Crawler) pageDelay() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(c.cfg.PageDelay)/2 + 1))
	return c.cfg.PageDelay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// resultSink accumulates reviews in discovery order. It never
// reorders; consumers needing sorted output sort explicitly.
type resultSink struct {
	product *domain.Product
	reviews []domain.Review
	stats   domain.ScrapeStats
}

func newResultSink() *resultSink {
	return &resultSink{reviews: []domain.Review{}}
}

func (s *resultSink) add(r domain.Review) {
	s.reviews = append(s.reviews, r)
}

func (s *resultSink) finalize(failed bool) *domain.ScrapeResult {
	status := domain.StatusCompleted
	switch {
	case failed:
		status = domain.StatusFailed
	case len(s.reviews) == 0:
		status = domain.StatusCompletedEmpty
	}
	return &domain.ScrapeResult{
		Product:      s.product,
		Reviews:      s.reviews,
		ScrapedCount: len(s.reviews),
		Status:       status,
		Stats:        s.stats,
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/common/fetcher"
	"github.com/project-tktt/review-crawler/internal/common/normalizer"
	"github.com/project-tktt/review-crawler/internal/common/report"
	"github.com/project-tktt/review-crawler/internal/config"
	"github.com/project-tktt/review-crawler/internal/domain"
	"github.com/project-tktt/review-crawler/internal/module"
	"github.com/project-tktt/review-crawler/internal/module/capterra"
	"github.com/project-tktt/review-crawler/internal/module/g2"
	"github.com/project-tktt/review-crawler/internal/observability"
	"github.com/project-tktt/review-crawler/internal/queue"
)

func main() {
	var (
		company   = flag.String("company", "", "company/product name to scrape reviews for")
		startDate = flag.String("start-date", "", "window start, inclusive (YYYY-MM-DD)")
		endDate   = flag.String("end-date", "", "window end, inclusive (YYYY-MM-DD)")
		source    = flag.String("source", "g2", "review source: g2 or capterra")
		out       = flag.String("out", "", "output JSON path (default <company>_<source>_reviews.json)")
		strategy  = flag.String("fetcher", "", "fetch strategy: http, colly or browser (default from env)")
		enqueue   = flag.Bool("enqueue", false, "publish the job to the Redis queue instead of running it")
	)
	flag.Parse()

	cfg := config.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	job, err := domain.NewScrapeJob(*company, *startDate, *endDate, domain.ReviewSource(*source))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid job")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		if err := enqueueJob(ctx, cfg, job); err != nil {
			log.Fatal().Err(err).Msg("enqueue failed")
		}
		log.Info().Str("queue", cfg.Redis.JobQueue).Msg("job enqueued")
		return
	}

	if *strategy != "" {
		cfg.Crawler.Fetcher = *strategy
	}
	f, err := newFetcher(cfg.Crawler)
	if err != nil {
		log.Fatal().Err(err).Msg("fetcher init failed")
	}
	defer f.Close()

	registry := module.NewRegistry(g2.New(), capterra.New())
	ad, err := registry.ForSource(job.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("unknown source")
	}

	crawler := module.NewCrawler(f, normalizer.NewNormalizer(nil), fetcher.RetryPolicy{
		MaxAttempts: cfg.Crawler.MaxRetries,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
	}, module.Config{
		MaxPages:    cfg.Crawler.MaxPages,
		PageDelay:   cfg.Crawler.PageDelay,
		VerifyOrder: cfg.Crawler.VerifyOrder,
	})

	result, runErr := crawler.Run(ctx, job, ad)
	if result == nil {
		log.Fatal().Err(runErr).Msg("scrape aborted before any results")
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("%s_%s_reviews.json", slug(*company), job.Source)
	}
	doc := report.Build(job, result, time.Now())
	if err := report.WriteFile(path, doc); err != nil {
		log.Fatal().Err(err).Msg("write output failed")
	}

	log.Info().
		Str("status", string(result.Status)).
		Int("reviews", result.ScrapedCount).
		Int("pages", result.Stats.PagesFetched).
		Str("out", path).
		Msg("done")

	// Ctrl-C still writes what was collected and exits clean; real
	// failures exit non-zero after persisting partial results.
	if runErr != nil && !errors.Is(runErr, module.ErrCancelled) {
		os.Exit(1)
	}
}

func enqueueJob(ctx context.Context, cfg *config.Config, job domain.ScrapeJob) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return queue.NewPublisher(rdb, cfg.Redis.JobQueue).Publish(ctx, job)
}

func newFetcher(cfg config.CrawlerConfig) (fetcher.Fetcher, error) {
	fcfg := fetcher.Config{
		UserAgent: cfg.UserAgent,
		ProxyURL:  cfg.ProxyURL,
		Timeout:   cfg.RequestTimeout,
	}
	switch cfg.Fetcher {
	case "", "http":
		return fetcher.NewHTTPFetcher(fcfg)
	case "colly":
		return fetcher.NewCollyFetcher(fcfg)
	case "browser":
		return fetcher.NewBrowserFetcher(fcfg)
	default:
		return nil, fmt.Errorf("unknown fetcher %q", cfg.Fetcher)
	}
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '_')
		}
	}
	return string(out)
}

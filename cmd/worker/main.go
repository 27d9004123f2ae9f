package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/common/dedup"
	"github.com/project-tktt/review-crawler/internal/common/fetcher"
	"github.com/project-tktt/review-crawler/internal/common/indexer"
	"github.com/project-tktt/review-crawler/internal/common/normalizer"
	"github.com/project-tktt/review-crawler/internal/config"
	"github.com/project-tktt/review-crawler/internal/module"
	"github.com/project-tktt/review-crawler/internal/module/capterra"
	"github.com/project-tktt/review-crawler/internal/module/g2"
	"github.com/project-tktt/review-crawler/internal/module/worker"
	"github.com/project-tktt/review-crawler/internal/observability"
	"github.com/project-tktt/review-crawler/internal/queue"
)

func main() {
	cfg := config.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Msg("starting review worker service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	indexers, err := newIndexers(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("indexer init failed")
	}

	f, err := newFetcher(cfg.Crawler)
	if err != nil {
		log.Fatal().Err(err).Msg("fetcher init failed")
	}
	defer f.Close()

	observability.Serve(cfg.MetricsAddr)

	crawler := module.NewCrawler(f, normalizer.NewNormalizer(nil), fetcher.RetryPolicy{
		MaxAttempts: cfg.Crawler.MaxRetries,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
	}, module.Config{
		MaxPages:    cfg.Crawler.MaxPages,
		PageDelay:   cfg.Crawler.PageDelay,
		VerifyOrder: cfg.Crawler.VerifyOrder,
	})

	registry := module.NewRegistry(g2.New(), capterra.New())
	seen := dedup.NewSeenStore(rdb, cfg.Redis.SeenPrefix, cfg.Redis.SeenTTL)
	consumer := queue.NewConsumer(rdb, cfg.Redis.JobQueue, 5*time.Second)

	w := worker.New(crawler, registry, seen, indexers, cfg.Worker.Concurrency)
	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

// newIndexers wires Postgres always and Elasticsearch when an index
// name is configured.
func newIndexers(ctx context.Context, cfg *config.Config) ([]indexer.Indexer, error) {
	pg, err := indexer.NewPostgresIndexer(cfg.Postgres.ConnectionString, cfg.Postgres.TableName)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	log.Info().Str("table", cfg.Postgres.TableName).Msg("postgres connected")
	out := []indexer.Indexer{pg}

	if cfg.Elasticsearch.Index != "" {
		es, err := indexer.NewElasticsearchIndexer(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			log.Warn().Err(err).Msg("ensure index failed")
		}
		log.Info().Str("index", cfg.Elasticsearch.Index).Msg("elasticsearch connected")
		out = append(out, es)
	}
	return out, nil
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

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "pages_fetched_total", Help: "Listing pages fetched."},
		[]string{"source"},
	)
	ReviewsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "collected_total", Help: "Reviews accepted into results."},
		[]string{"source"},
	)
	ReviewsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "dropped_total", Help: "Reviews dropped per reason."},
		[]string{"source", "reason"}, // reason: duplicate|unparseable_date|out_of_range
	)
	JobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "jobs_finished_total", Help: "Scrape jobs per terminal status."},
		[]string{"source", "status"},
	)
	FetchRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "fetch_retries_total", Help: "Fetch attempts retried, per failure kind."},
		[]string{"kind"}, // kind: timeout|http_status|network
	)
)

func init() {
	prometheus.MustRegister(PagesFetched, ReviewsCollected, ReviewsDropped, JobsFinished, FetchRetries)
}

// Serve exposes /metrics on addr. Empty addr disables the endpoint.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

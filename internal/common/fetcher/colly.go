package fetcher

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// CollyFetcher fetches pages through a Colly collector. It keeps the
// collector's own per-domain pacing on top of the controller's
// inter-page delay, which matters when several jobs share one domain.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a Colly-backed fetcher.
func NewCollyFetcher(cfg Config) (*CollyFetcher, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}

	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
	)

	if cfg.RequestsPerSecond > 0 {
		delay := time.Second / time.Duration(cfg.RequestsPerSecond)
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       delay,
			RandomDelay: delay / 2,
		}); err != nil {
			return nil, err
		}
	}

	if cfg.ProxyURL != "" {
		if err := c.SetProxy(cfg.ProxyURL); err != nil {
			return nil, err
		}
	}

	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	return &CollyFetcher{collector: c}, nil
}

func (f *CollyFetcher) Name() string { return "colly" }

// Fetch visits the page URL and returns the response body.
func (f *CollyFetcher) Fetch(ctx context.Context, page domain.PageRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body []byte
	var fetchErr error

	collector := f.collector.Clone()

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		fe := &FetchError{Kind: KindNetwork, URL: page.URL, Err: err}
		if r != nil && r.StatusCode != 0 {
			fe.Kind = KindHTTPStatus
			fe.Status = r.StatusCode
		}
		fetchErr = fe
	})

	if err := collector.Visit(page.URL); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, &FetchError{Kind: KindNetwork, URL: page.URL, Err: err}
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}

func (f *CollyFetcher) Close() error { return nil }

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// HTTPFetcher fetches pages with a plain HTTP client, rate-limited on
// the client side so a burst of pages never trips the source.
type HTTPFetcher struct {
	hc        *http.Client
	rl        *rate.Limiter
	userAgent string
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(cfg Config) (*HTTPFetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}

	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = http.ProxyURL(proxy)
		transport = t
	}

	return &HTTPFetcher{
		hc:        &http.Client{Timeout: timeout, Transport: transport},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		userAgent: ua,
	}, nil
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves one page. Failures come back as *FetchError so the
// retry policy can tell them apart from structural errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, page domain.PageRef) ([]byte, error) {
	if err := f.rl.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json")

	resp, err := f.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		kind := KindNetwork
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			kind = KindTimeout
		}
		return nil, &FetchError{Kind: kind, URL: page.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{
			Kind:       KindHTTPStatus,
			URL:        page.URL,
			Status:     resp.StatusCode,
			RetryAfter: retryAfter(resp),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: page.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (f *HTTPFetcher) Close() error {
	f.hc.CloseIdleConnections()
	return nil
}

// retryAfter parses a Retry-After header (seconds or HTTP-date).
// Returns 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

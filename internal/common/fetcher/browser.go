package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// BrowserFetcher drives a headless Chrome session for sources that
// refuse plain HTTP clients. One browser process is shared across the
// job; each fetch runs in its own tab.
type BrowserFetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
	settle        time.Duration
}

// NewBrowserFetcher launches the shared browser session.
func NewBrowserFetcher(cfg Config) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &BrowserFetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       timeout,
		settle:        2 * time.Second,
	}, nil
}

func (f *BrowserFetcher) Name() string { return "browser" }

// Fetch navigates a fresh tab to the page and captures the rendered
// document.
func (f *BrowserFetcher) Fetch(ctx context.Context, page domain.PageRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(page.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &FetchError{Kind: kind, URL: page.URL, Err: err}
	}

	return []byte(html), nil
}

// Close tears down the tab contexts and the browser process.
func (f *BrowserFetcher) Close() error {
	f.browserCancel()
	f.allocCancel()
	return nil
}

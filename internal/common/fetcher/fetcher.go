package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// Fetcher retrieves the raw payload for one listing page. It may
// block and it may fail transiently; the pagination controller wraps
// every call in the retry policy. Close releases whatever session the
// implementation holds (HTTP transport, colly collector, browser) and
// must be called on every exit path.
type Fetcher interface {
	// Fetch retrieves the raw payload for a page reference.
	Fetch(ctx context.Context, page domain.PageRef) ([]byte, error)

	// Close releases the fetch session.
	Close() error

	// Name identifies the fetch strategy for logging.
	Name() string
}

// Config holds common configuration for fetchers.
type Config struct {
	UserAgent string
	ProxyURL  string
	Timeout   time.Duration
	// Requests per second allowed against the source.
	RequestsPerSecond int
}

// ErrorKind classifies fetch failures. All kinds are transient: a
// timed-out, erroring or non-success fetch can succeed on retry.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindNetwork    ErrorKind = "network"
)

// FetchError is the failure of one fetch attempt.
type FetchError struct {
	Kind   ErrorKind
	URL    string
	Status int
	// RetryAfter is a server-provided wait hint, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

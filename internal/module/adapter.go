package module

import (
	"fmt"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// Ordering declares how a source sorts its listing. Boundary stop
// (quitting once records are older than the window) is only sound for
// newest-first listings; unknown-order sources get filtered page by
// page until exhaustion.
type Ordering int

const (
	OrderUnknown Ordering = iota
	OrderNewestFirst
)

// ParsedPage is what an adapter extracts from one raw payload.
type ParsedPage struct {
	// Product is non-nil on pages that carry the product header,
	// usually just the first.
	Product *domain.Product
	Reviews []domain.RawReview
	HasMore bool
	// NextURL is the adapter-reported cursor to the next page. Empty
	// means the controller advances by index instead.
	NextURL string
}

// Adapter translates one review directory's raw pages into canonical
// records. Implementations are pure given a payload; all fetching and
// control flow stays in the crawler.
type Adapter interface {
	// Source returns the directory tag this adapter parses.
	Source() domain.ReviewSource

	// Ordering declares the listing's native sort order.
	Ordering() Ordering

	// PageURL builds the listing URL for a company and 1-based page
	// index. The crawler uses it for the first page and whenever the
	// adapter reports no cursor.
	PageURL(company string, index int) string

	// ParsePage extracts the product header, the page's reviews and
	// the pagination signal from a raw payload. Returns *ParseError
	// when the payload's top-level structure cannot be located; a page
	// with zero reviews is valid and not an error.
	ParsePage(payload []byte) (*ParsedPage, error)
}

// ParseError is a structural failure: the page shape is unrecognized
// and refetching the same page will not change it.
type ParseError struct {
	Source domain.ReviewSource
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s page: %s", e.Source, e.Reason)
}

// Registry maps source tags to adapters. Built once at startup; the
// crawler looks adapters up per job and is otherwise agnostic to which
// variant runs.
type Registry struct {
	adapters map[domain.ReviewSource]Adapter
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.ReviewSource]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// ForSource returns the adapter registered for a source tag.
func (r *Registry) ForSource(src domain.ReviewSource) (Adapter, error) {
	a, ok := r.adapters[src]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source %q", src)
	}
	return a, nil
}

// Sources lists the registered source tags.
func (r *Registry) Sources() []domain.ReviewSource {
	out := make([]domain.ReviewSource, 0, len(r.adapters))
	for src := range r.adapters {
		out = append(out, src)
	}
	return out
}

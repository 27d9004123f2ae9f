package domain

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidJob is returned for jobs that fail validation before any
// fetch happens (bad date format, start after end, missing fields).
var ErrInvalidJob = errors.New("invalid scrape job")

// ScrapeJob describes one crawl: a company, a source and an inclusive
// date window. Immutable once constructed.
type ScrapeJob struct {
	CompanyName string       `json:"company_name"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Source      ReviewSource `json:"source"`
}

// NewScrapeJob parses and validates CLI/queue input. Dates are ISO
// calendar dates (YYYY-MM-DD); the window is inclusive on both ends.
func NewScrapeJob(company, startDate, endDate string, source ReviewSource) (ScrapeJob, error) {
	if company == "" {
		return ScrapeJob{}, fmt.Errorf("%w: company name is required", ErrInvalidJob)
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return ScrapeJob{}, fmt.Errorf("%w: start date %q: want YYYY-MM-DD", ErrInvalidJob, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return ScrapeJob{}, fmt.Errorf("%w: end date %q: want YYYY-MM-DD", ErrInvalidJob, endDate)
	}
	j := ScrapeJob{CompanyName: company, StartDate: start, EndDate: end, Source: source}
	if err := j.Validate(); err != nil {
		return ScrapeJob{}, err
	}
	return j, nil
}

// Validate re-checks the invariants for jobs that arrived already
// constructed, e.g. decoded off the queue.
func (j ScrapeJob) Validate() error {
	if j.CompanyName == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidJob)
	}
	if j.StartDate.IsZero() || j.EndDate.IsZero() {
		return fmt.Errorf("%w: both start and end dates are required", ErrInvalidJob)
	}
	if j.StartDate.After(j.EndDate) {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidJob, j.StartDate.Format(dateLayout), j.EndDate.Format(dateLayout))
	}
	switch j.Source {
	case SourceG2, SourceCapterra:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidJob, j.Source)
	}
	return nil
}

// PageRef is an opaque cursor to one listing page. Owned and advanced
// only by the pagination controller.
type PageRef struct {
	URL   string `json:"url"`
	Index int    `json:"index"` // 1-based
}

// JobStatus is the terminal outcome of a scrape job.
type JobStatus string

const (
	StatusCompleted      JobStatus = "completed"
	StatusCompletedEmpty JobStatus = "completed_empty"
	StatusFailed         JobStatus = "failed"
)

// ScrapeStats counts per-record outcomes that never abort the job.
type ScrapeStats struct {
	PagesFetched int `json:"pages_fetched"`
	Duplicates   int `json:"duplicates"`
	Unparseable  int `json:"unparseable_dates"`
	OutOfRange   int `json:"out_of_range"`
}

// ScrapeResult is built incrementally by the controller and frozen at
// a terminal state. On failure it still carries everything collected
// up to that point.
type ScrapeResult struct {
	Product      *Product    `json:"product,omitempty"`
	Reviews      []Review    `json:"reviews"`
	ScrapedCount int         `json:"scraped_count"`
	Status       JobStatus   `json:"status"`
	Stats        ScrapeStats `json:"stats"`
}

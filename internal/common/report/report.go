// Package report renders a finished job as the persisted output
// document. Field presence is uniform across sources: fields a source
// never publishes are empty strings, not omitted keys.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/project-tktt/review-crawler/internal/domain"
)

const dateLayout = "2006-01-02"

// DateRange is the job's inclusive window.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Entry is one review in the output document.
type Entry struct {
	ReviewerName string `json:"reviewer_name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Rating       string `json:"rating"`
	Date         string `json:"date"`
	ProfileTitle string `json:"profile_title"`
	Pros         string `json:"pros"`
	Cons         string `json:"cons"`
}

// Document is the persisted output schema.
type Document struct {
	Company         string          `json:"company"`
	Source          string          `json:"source"`
	DateRange       DateRange       `json:"date_range"`
	ScrapeTimestamp time.Time       `json:"scrape_timestamp"`
	Product         *domain.Product `json:"product,omitempty"`
	TotalReviews    int             `json:"total_reviews"`
	Reviews         []Entry         `json:"reviews"`
}

// Build assembles the document in the result's discovery order.
func Build(job domain.ScrapeJob, result *domain.ScrapeResult, now time.Time) Document {
	entries := make([]Entry, 0, len(result.Reviews))
	for _, r := range result.Reviews {
		entries = append(entries, Entry{
			ReviewerName: r.ReviewerName,
			Title:        r.Title,
			Description:  r.Description,
			Rating:       r.Rating,
			Date:         r.Date.Format(dateLayout),
			ProfileTitle: r.ProfileTitle,
			Pros:         r.Pros,
			Cons:         r.Cons,
		})
	}

	return Document{
		Company: job.CompanyName,
		Source:  string(job.Source),
		DateRange: DateRange{
			Start: job.StartDate.Format(dateLayout),
			End:   job.EndDate.Format(dateLayout),
		},
		ScrapeTimestamp: now.UTC(),
		Product:         result.Product,
		TotalReviews:    result.ScrapedCount,
		Reviews:         entries,
	}
}

// WriteFile writes the document as indented JSON.
func WriteFile(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

package domain

import "time"

// Review is the normalized review record common to all sources.
// Absent source-specific fields stay as empty strings so the output
// schema is uniform regardless of where the review came from.
type Review struct {
	Source       ReviewSource `json:"source"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Rating       string       `json:"rating"` // source-native scale, e.g. "4.5/5"
	Date         time.Time    `json:"date"`
	ReviewerName string       `json:"reviewer_name"`
	ProfileTitle string       `json:"profile_title"`
	Pros         string       `json:"pros"`
	Cons         string       `json:"cons"`
}

// RawReview is a review as extracted from a page, before date
// normalization and text cleaning. The date is the site-native string
// ("March 3, 2024", "2 months ago", ...).
type RawReview struct {
	Source       ReviewSource `json:"source"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Rating       string       `json:"rating"`
	Date         string       `json:"date"`
	ReviewerName string       `json:"reviewer_name"`
	ProfileTitle string       `json:"profile_title"`
	Pros         string       `json:"pros"`
	Cons         string       `json:"cons"`
}

// Product is the per-job product summary, collected once from the
// first page that carries a product header.
type Product struct {
	ProductName          string `json:"product_name"`
	AggregateRating      string `json:"aggregate_rating"`
	ReportedTotalReviews string `json:"reported_total_reviews"`
}

// ReviewSource identifies the originating review directory.
type ReviewSource string

const (
	SourceG2       ReviewSource = "g2"
	SourceCapterra ReviewSource = "capterra"
)

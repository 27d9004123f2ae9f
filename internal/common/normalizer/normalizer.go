package normalizer

import (
	"fmt"
	"html"
	"strings"

	"github.com/project-tktt/review-crawler/internal/common/cleaner"
	"github.com/project-tktt/review-crawler/internal/common/dates"
	"github.com/project-tktt/review-crawler/internal/domain"
)

// Normalizer converts RawReview to the canonical Review format: the
// site-native date string becomes a calendar date and all text fields
// are stripped of markup and entities.
type Normalizer struct {
	dates *dates.Parser
	clean *cleaner.Cleaner
}

// NewNormalizer creates a normalizer. A nil parser gets the wall-clock
// default; tests pass one with a pinned reference time.
func NewNormalizer(p *dates.Parser) *Normalizer {
	if p == nil {
		p = dates.NewParser()
	}
	return &Normalizer{
		dates: p,
		clean: cleaner.NewStrictCleaner(),
	}
}

// Normalize converts a RawReview to a Review. A review whose date
// cannot be parsed is unusable: it cannot be classified against the
// job's window, so the error is surfaced for the caller to count.
func (n *Normalizer) Normalize(raw domain.RawReview) (domain.Review, error) {
	date, err := n.dates.Parse(raw.Date)
	if err != nil {
		return domain.Review{}, fmt.Errorf("normalize review date: %w", err)
	}

	return domain.Review{
		Source:       raw.Source,
		Title:        n.text(raw.Title),
		Description:  n.text(raw.Description),
		Rating:       strings.TrimSpace(raw.Rating),
		Date:         date,
		ReviewerName: n.text(raw.ReviewerName),
		ProfileTitle: n.text(raw.ProfileTitle),
		Pros:         n.text(raw.Pros),
		Cons:         n.text(raw.Cons),
	}, nil
}

func (n *Normalizer) text(s string) string {
	s = n.clean.CleanToText(s)
	s = html.UnescapeString(s)
	// G2 truncates long bodies behind a "Show More" link; the expanded
	// text still carries the marker.
	s = strings.ReplaceAll(s, "... Show More", "")
	s = strings.TrimSuffix(s, "Show More")
	return strings.TrimSpace(s)
}

// ProductName strips listing-page decorations from a product header,
// e.g. Capterra's "Acme Reviews" → "Acme".
func ProductName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, " Reviews")
	return strings.TrimSpace(name)
}

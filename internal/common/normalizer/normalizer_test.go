package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/project-tktt/review-crawler/internal/common/dates"
	"github.com/project-tktt/review-crawler/internal/domain"
)

func fixedParser() *dates.Parser {
	return &dates.Parser{Now: func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func TestNormalize_CleansTextAndParsesDate(t *testing.T) {
	n := NewNormalizer(fixedParser())

	got, err := n.Normalize(domain.RawReview{
		Source:       domain.SourceG2,
		Title:        "  Great &amp; reliable  ",
		Description:  "<p>Works <b>well</b></p>... Show More",
		Rating:       " 4.5/5 ",
		Date:         "Reviewed on March 3, 2024",
		ReviewerName: "Dana",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Great & reliable", got.Title)
	assert.Equal(t, "Works well", got.Description)
	assert.Equal(t, "4.5/5", got.Rating)
	assert.True(t, got.Date.Equal(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)))
}

func TestNormalize_RelativeDateUsesInjectedClock(t *testing.T) {
	n := NewNormalizer(fixedParser())

	got, err := n.Normalize(domain.RawReview{
		Source: domain.SourceCapterra,
		Date:   "2 months ago",
	})
	assert.NoError(t, err)
	assert.True(t, got.Date.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNormalize_UnparseableDateSurfaced(t *testing.T) {
	n := NewNormalizer(fixedParser())

	_, err := n.Normalize(domain.RawReview{Source: domain.SourceG2, Date: "no idea"})
	assert.True(t, errors.Is(err, dates.ErrUnparseable))
}

func TestProductName(t *testing.T) {
	assert.Equal(t, "Acme", ProductName(" Acme Reviews "))
	assert.Equal(t, "Acme", ProductName("Acme"))
}

// Package capterra parses Capterra review listing pages. Capterra has
// no review titles, splits feedback into Comments/Pros/Cons and dates
// reviews relatively ("2 months ago"), so its listing order cannot be
// verified and the crawler filters it page by page until exhaustion.
package capterra

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/project-tktt/review-crawler/internal/common/normalizer"
	"github.com/project-tktt/review-crawler/internal/domain"
	"github.com/project-tktt/review-crawler/internal/module"
)

const baseURL = "https://www.capterra.com"

// Adapter parses Capterra review pages.
type Adapter struct{}

// New creates a Capterra adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Source() domain.ReviewSource { return domain.SourceCapterra }

func (a *Adapter) Ordering() module.Ordering { return module.OrderUnknown }

// PageURL builds the listing URL for a company slug and page index.
func (a *Adapter) PageURL(company string, index int) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(company)), " ", "-")
	if index <= 1 {
		return fmt.Sprintf("%s/p/%s/reviews/", baseURL, slug)
	}
	return fmt.Sprintf("%s/p/%s/reviews/?page=%d", baseURL, slug, index)
}

// ParsePage extracts the product header and the page's review cards.
func (a *Adapter) ParsePage(payload []byte) (*module.ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &module.ParseError{Source: domain.SourceCapterra, Reason: fmt.Sprintf("invalid html: %v", err)}
	}

	header := doc.Find("div#productHeader")
	if header.Length() == 0 {
		return nil, &module.ParseError{Source: domain.SourceCapterra, Reason: "product header not found"}
	}

	page := &module.ParsedPage{
		Product: &domain.Product{
			// The header titles the listing "<Product> Reviews".
			ProductName:          normalizer.ProductName(header.Find("h1.mb-1").First().Text()),
			AggregateRating:      strings.TrimSpace(header.Find("span.star-rating-component span.ms-1").First().Text()),
			ReportedTotalReviews: strings.TrimSpace(header.Find("span.reviews-count").First().Text()),
		},
	}

	doc.Find("div.review-card").Each(func(_ int, card *goquery.Selection) {
		page.Reviews = append(page.Reviews, domain.RawReview{
			Source:       domain.SourceCapterra,
			Description:  comments(card),
			Rating:       strings.TrimSpace(card.Find("span.star-rating-component span.ms-1").First().Text()),
			Date:         strings.TrimSpace(card.Find("span.ms-2").First().Text()),
			ReviewerName: strings.TrimSpace(card.Find("div.fw-bold, div.h5.fw-bold").First().Text()),
			ProfileTitle: strings.TrimSpace(card.Find("div.text-ash").First().Text()),
			Pros:         labeledSection(card, "Pros:"),
			Cons:         labeledSection(card, "Cons:"),
		})
	})

	if next := doc.Find("a[rel='next']").First(); next.Length() > 0 {
		page.HasMore = true
		if href, ok := next.Attr("href"); ok && href != "" {
			if strings.HasPrefix(href, "/") {
				href = baseURL + href
			}
			page.NextURL = href
		}
	}

	return page, nil
}

// comments pulls the free-text feedback out of the "Comments:" block,
// skipping the label span itself.
func comments(card *goquery.Selection) string {
	var text strings.Builder
	card.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if !strings.Contains(p.Text(), "Comments:") {
			return true
		}
		p.Find("span").Each(func(_ int, span *goquery.Selection) {
			if s := strings.TrimSpace(span.Text()); s != "" && !strings.Contains(s, "Comments:") {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(s)
			}
		})
		return false
	})
	return text.String()
}

// labeledSection returns the text following a "Pros:"/"Cons:" label
// paragraph.
func labeledSection(card *goquery.Selection, label string) string {
	var out string
	card.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if strings.TrimSpace(p.Text()) != label {
			return true
		}
		out = strings.TrimSpace(p.Next().Text())
		return false
	})
	return out
}

// Package g2 parses G2.com review listing pages. G2 lists reviews
// newest-first and dates them absolutely ("Reviewed on March 3, 2024"),
// which is what makes boundary stop sound for this source.
package g2

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/project-tktt/review-crawler/internal/domain"
	"github.com/project-tktt/review-crawler/internal/module"
)

const baseURL = "https://www.g2.com"

// Adapter parses G2 review pages.
type Adapter struct{}

// New creates a G2 adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Source() domain.ReviewSource { return domain.SourceG2 }

func (a *Adapter) Ordering() module.Ordering { return module.OrderNewestFirst }

// PageURL builds the listing URL for a company slug and page index.
func (a *Adapter) PageURL(company string, index int) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(company)), " ", "-")
	if index <= 1 {
		return fmt.Sprintf("%s/products/%s/reviews", baseURL, slug)
	}
	return fmt.Sprintf("%s/products/%s/reviews?page=%d", baseURL, slug, index)
}

// ParsePage extracts the product header and the page's reviews.
func (a *Adapter) ParsePage(payload []byte) (*module.ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &module.ParseError{Source: domain.SourceG2, Reason: fmt.Sprintf("invalid html: %v", err)}
	}

	head := doc.Find("div.product-head")
	if head.Length() == 0 {
		// No product header at all: blocked, interstitial or not a
		// review page. Distinct from a valid page with zero reviews.
		return nil, &module.ParseError{Source: domain.SourceG2, Reason: "product header not found"}
	}

	page := &module.ParsedPage{
		Product: &domain.Product{
			ProductName:          strings.TrimSpace(head.Find("[itemprop='name']").First().Text()),
			AggregateRating:      strings.TrimSpace(head.Find("span[itemprop='ratingValue']").First().Text()),
			ReportedTotalReviews: strings.TrimSpace(head.Find("span[itemprop='reviewCount']").First().Text()),
		},
	}

	doc.Find("div[itemprop='review']").Each(func(_ int, sel *goquery.Selection) {
		rating := strings.TrimSpace(sel.Find("span.g2-crowd-score__value").First().Text())
		if rating != "" {
			rating += "/5"
		}

		body, _ := sel.Find("div[itemprop='reviewBody']").First().Html()

		page.Reviews = append(page.Reviews, domain.RawReview{
			Source:       domain.SourceG2,
			Title:        strings.TrimSpace(sel.Find("h3[itemprop='name']").First().Text()),
			Description:  body,
			Rating:       rating,
			Date:         strings.TrimSpace(sel.Find("div.x-current-review-date").First().Text()),
			ReviewerName: strings.TrimSpace(sel.Find("[itemprop='author']").First().Text()),
			ProfileTitle: strings.TrimSpace(sel.Find("div.mt-4th").First().Text()),
		})
	})

	if next := doc.Find("a[aria-label='Next page']").First(); next.Length() > 0 {
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

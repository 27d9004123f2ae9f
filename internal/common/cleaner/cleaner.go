package cleaner

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner sanitizes review text using Bluemonday. Review bodies come
// out of raw HTML payloads and can drag markup and script fragments
// along with them.
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that keeps basic formatting but strips
// dangerous elements.
func NewCleaner() *Cleaner {
	policy := bluemonday.NewPolicy()

	policy.AllowElements("p", "br", "span")
	policy.AllowElements("strong", "b", "em", "i")
	policy.AllowElements("ul", "ol", "li")

	return &Cleaner{policy: policy}
}

// NewStrictCleaner creates a cleaner that strips ALL HTML.
func NewStrictCleaner() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// Clean sanitizes HTML content.
func (c *Cleaner) Clean(html string) string {
	return c.policy.Sanitize(html)
}

// CleanToText removes all HTML and returns trimmed plain text.
func (c *Cleaner) CleanToText(html string) string {
	text := bluemonday.StrictPolicy().Sanitize(html)

	text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	text = strings.TrimSpace(text)

	return text
}

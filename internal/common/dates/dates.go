// Package dates normalizes the date strings review sites publish into
// calendar dates. Sites use absolute formats ("March 3, 2024",
// "2024-03-03", "03/03/2024") or relative phrasing ("2 months ago");
// relative phrasing is resolved against the parser's clock, so callers
// that need determinism inject a fixed one.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable marks a date string no known format matched.
var ErrUnparseable = errors.New("unparseable date")

var layouts = []string{
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

var relativeRe = regexp.MustCompile(`(?i)^(\d+|an?)\s+(day|week|month|year)s?\s+ago$`)

// Parser resolves date strings. Now is the reference clock for
// relative phrasing; the zero value uses wall-clock time.
type Parser struct {
	Now func() time.Time
}

func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Parse normalizes s to a calendar date (midnight UTC). Leading
// decorations like "Reviewed on " are stripped first.
func (p *Parser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Reviewed on ")
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparseable)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), nil
		}
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		return truncate(p.relative(m[1], strings.ToLower(m[2]))), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

func (p *Parser) relative(count, unit string) time.Time {
	n := 1 // "a month ago"
	if i, err := strconv.Atoi(count); err == nil {
		n = i
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	switch unit {
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	default: // year
		return now.AddDate(-n, 0, 0)
	}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

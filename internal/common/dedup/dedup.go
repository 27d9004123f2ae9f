// Package dedup recognizes the same review encountered twice. No
// review site publishes a stable per-review identifier, and a retried
// or shifted listing page can serve overlapping records, so reviews
// are fingerprinted on a composite of fields that survive re-fetching.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/project-tktt/review-crawler/internal/domain"
)

const descriptionPrefixLen = 64

// Key is a stable fingerprint of (source, reviewer, date, description
// prefix).
type Key string

// KeyFor fingerprints a normalized review.
func KeyFor(r domain.Review) Key {
	desc := strings.ToLower(strings.TrimSpace(r.Description))
	if len(desc) > descriptionPrefixLen {
		desc = desc[:descriptionPrefixLen]
	}
	composite := fmt.Sprintf("%s:%s:%s:%s",
		r.Source, strings.ToLower(r.ReviewerName), r.Date.Format("2006-01-02"), desc)

	h := sha256.Sum256([]byte(composite))
	return Key(hex.EncodeToString(h[:16]))
}

// Set tracks seen keys for the lifetime of one job. It is owned by a
// single controller instance and is not safe for concurrent use.
type Set struct {
	seen map[Key]struct{}
}

// NewSet creates an empty per-job seen-set.
func NewSet() *Set {
	return &Set{seen: make(map[Key]struct{})}
}

// Seen reports whether the review was already recorded, marking it
// seen as a side effect.
func (s *Set) Seen(r domain.Review) bool {
	k := KeyFor(r)
	if _, ok := s.seen[k]; ok {
		return true
	}
	s.seen[k] = struct{}{}
	return false
}

// Len returns the number of distinct reviews recorded.
func (s *Set) Len() int {
	return len(s.seen)
}

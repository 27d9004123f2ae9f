package module

import "time"

// Classification buckets a review date against the job's window.
type Classification int

const (
	InRange Classification = iota
	BeforeRange
	AfterRange
)

func (c Classification) String() string {
	switch c {
	case BeforeRange:
		return "before_range"
	case AfterRange:
		return "after_range"
	default:
		return "in_range"
	}
}

// Classify buckets a date against an inclusive [start, end] window.
// Pure; the caller decides what each bucket means for pagination.
func Classify(date, start, end time.Time) Classification {
	if date.Before(start) {
		return BeforeRange
	}
	if date.After(end) {
		return AfterRange
	}
	return InRange
}

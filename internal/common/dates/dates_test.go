package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse_AbsoluteFormatsAgree(t *testing.T) {
	p := NewParser()
	want := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)

	for _, s := range []string{"March 3, 2024", "Mar 3, 2024", "2024-03-03", "03/03/2024"} {
		got, err := p.Parse(s)
		assert.NoError(t, err, s)
		assert.True(t, got.Equal(want), "%s parsed to %s", s, got)
	}
}

func TestParse_ReviewedOnPrefix(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("Reviewed on December 15, 2023")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParse_RelativeWithFixedClock(t *testing.T) {
	fixed := time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC)
	p := &Parser{Now: func() time.Time { return fixed }}

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2 months ago", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{"1 month ago", time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)},
		{"a month ago", time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)},
		{"3 days ago", time.Date(2024, time.May, 7, 0, 0, 0, 0, time.UTC)},
		{"2 weeks ago", time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)},
		{"1 year ago", time.Date(2023, time.May, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := p.Parse(tt.in)
		assert.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%s parsed to %s, want %s", tt.in, got, tt.want)
	}
}

func TestParse_Unparseable(t *testing.T) {
	p := NewParser()
	for _, s := range []string{"", "yesterday-ish", "99/99/9999", "sometime in spring"} {
		_, err := p.Parse(s)
		assert.True(t, errors.Is(err, ErrUnparseable), "%q: %v", s, err)
	}
}

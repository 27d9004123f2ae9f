package module

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	start := date(2024, time.March, 1)
	end := date(2024, time.March, 31)

	tests := []struct {
		name string
		in   time.Time
		want Classification
	}{
		{"inside", date(2024, time.March, 15), InRange},
		{"start boundary inclusive", start, InRange},
		{"end boundary inclusive", end, InRange},
		{"day before start", date(2024, time.February, 29), BeforeRange},
		{"day after end", date(2024, time.April, 1), AfterRange},
		{"years earlier", date(2020, time.January, 1), BeforeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in, start, end))
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	start := date(2024, time.March, 1)
	end := date(2024, time.March, 31)
	d := date(2024, time.March, 10)

	first := Classify(d, start, end)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(d, start, end))
	}
}

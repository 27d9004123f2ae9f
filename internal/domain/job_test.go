package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/review-crawler/internal/domain"
)

func TestNewScrapeJob(t *testing.T) {
	job, err := domain.NewScrapeJob("Acme CRM", "2024-03-01", "2024-03-31", domain.SourceG2)
	require.NoError(t, err)
	assert.Equal(t, "Acme CRM", job.CompanyName)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), job.StartDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), job.EndDate)
}

func TestNewScrapeJob_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		company string
		start   string
		end     string
		source  domain.ReviewSource
	}{
		{"empty company", "", "2024-03-01", "2024-03-31", domain.SourceG2},
		{"bad start date", "Acme", "03/01/2024", "2024-03-31", domain.SourceG2},
		{"bad end date", "Acme", "2024-03-01", "yesterday", domain.SourceG2},
		{"start after end", "Acme", "2024-04-01", "2024-03-31", domain.SourceG2},
		{"unknown source", "Acme", "2024-03-01", "2024-03-31", "trustradius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewScrapeJob(tt.company, tt.start, tt.end, tt.source)
			assert.ErrorIs(t, err, domain.ErrInvalidJob)
		})
	}
}

func TestNewScrapeJob_SingleDayWindow(t *testing.T) {
	_, err := domain.NewScrapeJob("Acme", "2024-03-15", "2024-03-15", domain.SourceCapterra)
	assert.NoError(t, err)
}

func TestValidate_DecodedJob(t *testing.T) {
	// Jobs arrive off the queue as JSON; Validate re-checks them.
	raw := `{"company_name":"Acme","start_date":"2024-03-01T00:00:00Z","end_date":"2024-03-31T00:00:00Z","source":"capterra"}`
	var job domain.ScrapeJob
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.NoError(t, job.Validate())

	job.Source = "unknown"
	assert.ErrorIs(t, job.Validate(), domain.ErrInvalidJob)
}

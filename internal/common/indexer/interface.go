package indexer

import (
	"context"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// Indexer persists accepted reviews to a storage backend.
type Indexer interface {
	// BulkIndex writes a job's reviews for a company in one batch.
	BulkIndex(ctx context.Context, company string, reviews []domain.Review) error
}

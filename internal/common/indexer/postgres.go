package indexer

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/common/dedup"
	"github.com/project-tktt/review-crawler/internal/domain"
)

// PostgresIndexer persists reviews to PostgreSQL, keyed on the dedup
// fingerprint so re-runs over overlapping windows upsert instead of
// double-counting.
type PostgresIndexer struct {
	db        *sql.DB
	tableName string
}

// NewPostgresIndexer opens the connection and ensures the table.
func NewPostgresIndexer(connStr string, tableName string) (*PostgresIndexer, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	idx := &PostgresIndexer{
		db:        db,
		tableName: tableName,
	}

	if err := idx.ensureTable(); err != nil {
		return nil, fmt.Errorf("ensure table: %w", err)
	}

	return idx, nil
}

func (i *PostgresIndexer) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			dedup_key TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT,
			description TEXT,
			rating TEXT,
			review_date DATE NOT NULL,
			reviewer_name TEXT,
			profile_title TEXT,
			pros TEXT,
			cons TEXT,
			indexed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`, i.tableName)

	if _, err := i.db.Exec(query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// BulkIndex upserts a batch of reviews inside one transaction.
func (i *PostgresIndexer) BulkIndex(ctx context.Context, company string, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (
			dedup_key, company, source, title, description, rating,
			review_date, reviewer_name, profile_title, pros, cons
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (dedup_key) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			rating = EXCLUDED.rating,
			indexed_at = NOW()`, i.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reviews {
		if _, err := stmt.ExecContext(ctx,
			string(dedup.KeyFor(r)), company, string(r.Source),
			r.Title, r.Description, r.Rating, r.Date,
			r.ReviewerName, r.ProfileTitle, r.Pros, r.Cons,
		); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Debug().Int("reviews", len(reviews)).Str("company", company).Msg("indexed to postgres")
	return nil
}

// Close releases the connection pool.
func (i *PostgresIndexer) Close() error {
	return i.db.Close()
}

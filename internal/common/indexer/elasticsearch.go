package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/common/dedup"
	"github.com/project-tktt/review-crawler/internal/domain"
)

// ElasticsearchIndexer bulk-indexes reviews for full-text search.
type ElasticsearchIndexer struct {
	client    *elasticsearch.Client
	indexName string
}

// reviewDoc is the indexed document shape.
type reviewDoc struct {
	Company      string    `json:"company"`
	Source       string    `json:"source"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Rating       string    `json:"rating"`
	ReviewDate   time.Time `json:"review_date"`
	ReviewerName string    `json:"reviewer_name"`
	ProfileTitle string    `json:"profile_title"`
	Pros         string    `json:"pros"`
	Cons         string    `json:"cons"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// NewElasticsearchIndexer creates the client and checks connectivity.
func NewElasticsearchIndexer(addresses []string, indexName string) (*ElasticsearchIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	res.Body.Close()

	return &ElasticsearchIndexer{
		client:    client,
		indexName: indexName,
	}, nil
}

// EnsureIndex creates the index with review mappings if absent.
func (i *ElasticsearchIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName})
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"company": {"type": "keyword"},
				"source": {"type": "keyword"},
				"title": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
				"description": {"type": "text"},
				"rating": {"type": "keyword"},
				"review_date": {"type": "date"},
				"reviewer_name": {"type": "keyword"},
				"profile_title": {"type": "text"},
				"pros": {"type": "text"},
				"cons": {"type": "text"},
				"indexed_at": {"type": "date"}
			}
		}
	}`

	res, err = i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index: %s", res.Status())
	}
	return nil
}

// BulkIndex writes reviews with the dedup fingerprint as document ID,
// so overlapping runs overwrite rather than duplicate.
func (i *ElasticsearchIndexer) BulkIndex(ctx context.Context, company string, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	var buf bytes.Buffer
	now := time.Now().UTC()

	for _, r := range reviews {
		meta := map[string]any{
			"index": map[string]any{
				"_index": i.indexName,
				"_id":    string(dedup.KeyFor(r)),
			},
		}
		metaBytes, _ := json.Marshal(meta)
		buf.Write(metaBytes)
		buf.WriteByte('\n')

		doc := reviewDoc{
			Company:      company,
			Source:       string(r.Source),
			Title:        r.Title,
			Description:  r.Description,
			Rating:       r.Rating,
			ReviewDate:   r.Date,
			ReviewerName: r.ReviewerName,
			ProfileTitle: r.ProfileTitle,
			Pros:         r.Pros,
			Cons:         r.Cons,
			IndexedAt:    now,
		}
		docBytes, err := json.Marshal(doc)
		if err != nil {
			log.Warn().Err(err).Str("reviewer", r.ReviewerName).Msg("marshal review, skipping")
			continue
		}
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}

	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			if item.Index.Status >= 400 {
				log.Warn().
					Str("id", item.Index.ID).
					Str("type", item.Index.Error.Type).
					Str("reason", item.Index.Error.Reason).
					Msg("bulk index item failed")
			}
		}
	}

	return nil
}

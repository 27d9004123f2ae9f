package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// SeenStore tracks reviews across runs using Redis, so a re-run of an
// overlapping date window does not index the same review twice. The
// per-job Set still guards within a single job; this store is an
// optional second layer used by the worker path.
type SeenStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewSeenStore creates a Redis-backed seen store.
func NewSeenStore(client *redis.Client, prefix string, defaultTTL time.Duration) *SeenStore {
	if prefix == "" {
		prefix = "review:seen"
	}
	if defaultTTL == 0 {
		defaultTTL = 90 * 24 * time.Hour
	}
	return &SeenStore{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// IsSeen checks whether the review's fingerprint has been recorded.
func (s *SeenStore) IsSeen(ctx context.Context, r domain.Review) (bool, error) {
	exists, err := s.client.Exists(ctx, s.makeKey(r)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return exists > 0, nil
}

// MarkSeen records the review's fingerprint with the default TTL.
func (s *SeenStore) MarkSeen(ctx context.Context, r domain.Review) error {
	if err := s.client.Set(ctx, s.makeKey(r), time.Now().Unix(), s.defaultTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MarkSeenBatch records a batch of fingerprints in one round trip.
func (s *SeenStore) MarkSeenBatch(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	now := time.Now().Unix()
	for _, r := range rs {
		pipe.Set(ctx, s.makeKey(r), now, s.defaultTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	return nil
}

func (s *SeenStore) makeKey(r domain.Review) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, r.Source, KeyFor(r))
}

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/project-tktt/review-crawler/internal/domain"
)

func review(name, desc string) domain.Review {
	return domain.Review{
		Source:       domain.SourceG2,
		ReviewerName: name,
		Description:  desc,
		Date:         time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestKeyFor_StableAcrossIncidentals(t *testing.T) {
	a := review("Dana", "Solid tool, does what it says.")
	b := a
	b.Rating = "5/5" // rating is not part of the fingerprint
	b.Title = "different title"

	assert.Equal(t, KeyFor(a), KeyFor(b))
}

func TestKeyFor_DistinguishesReviewers(t *testing.T) {
	a := review("Dana", "Solid tool.")
	b := review("Alex", "Solid tool.")

	assert.NotEqual(t, KeyFor(a), KeyFor(b))
}

func TestSet_SeenMarksAndDetects(t *testing.T) {
	s := NewSet()
	r := review("Dana", "Solid tool.")

	assert.False(t, s.Seen(r))
	assert.True(t, s.Seen(r))
	assert.Equal(t, 1, s.Len())
}

func TestSeenStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSeenStore(client, "test:seen", time.Hour)
	ctx := context.Background()

	r := review("Dana", "Solid tool.")

	seen, err := store.IsSeen(ctx, r)
	assert.NoError(t, err)
	assert.False(t, seen)

	assert.NoError(t, store.MarkSeen(ctx, r))

	seen, err = store.IsSeen(ctx, r)
	assert.NoError(t, err)
	assert.True(t, seen)
}

func TestSeenStore_MarkSeenBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSeenStore(client, "", 0)
	ctx := context.Background()

	batch := []domain.Review{review("Dana", "one"), review("Alex", "two")}
	assert.NoError(t, store.MarkSeenBatch(ctx, batch))

	for _, r := range batch {
		seen, err := store.IsSeen(ctx, r)
		assert.NoError(t, err)
		assert.True(t, seen)
	}
}

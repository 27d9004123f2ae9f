package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/review-crawler/internal/domain"
)

const defaultQueue = "scrape:jobs"

// Publisher pushes scrape jobs to the Redis queue.
type Publisher struct {
	client    *redis.Client
	queueName string
}

// NewPublisher creates a new queue publisher.
func NewPublisher(client *redis.Client, queueName string) *Publisher {
	if queueName == "" {
		queueName = defaultQueue
	}
	return &Publisher{
		client:    client,
		queueName: queueName,
	}
}

// Publish pushes a single job to the queue. Invalid jobs are rejected
// here rather than poisoning the queue.
func (p *Publisher) Publish(ctx context.Context, job domain.ScrapeJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := p.client.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

// PublishBatch pushes multiple jobs in one round trip.
func (p *Publisher) PublishBatch(ctx context.Context, jobs []domain.ScrapeJob) error {
	if len(jobs) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return err
		}
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		pipe.LPush(ctx, p.queueName, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}

	return nil
}

// QueueLength returns the current queue length.
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}

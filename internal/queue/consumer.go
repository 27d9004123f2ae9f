package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/project-tktt/review-crawler/internal/domain"
)

// Consumer consumes scrape jobs from the Redis queue.
type Consumer struct {
	client    *redis.Client
	queueName string
	timeout   time.Duration
}

// NewConsumer creates a new queue consumer.
func NewConsumer(client *redis.Client, queueName string, timeout time.Duration) *Consumer {
	if queueName == "" {
		queueName = defaultQueue
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{
		client:    client,
		queueName: queueName,
		timeout:   timeout,
	}
}

// Consume blocks and waits for a job from the queue.
// Returns nil, nil if the wait times out with no job.
func (c *Consumer) Consume(ctx context.Context) (*domain.ScrapeJob, error) {
	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, no job available
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var job domain.ScrapeJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

// Run starts a continuous consumer loop. Handler errors are logged
// and the loop keeps going; only queue-level errors stop it.
func (c *Consumer) Run(ctx context.Context, handler func(domain.ScrapeJob) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := c.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("consume failed, skipping entry")
			continue
		}

		if job == nil {
			continue // timeout, try again
		}

		if err := handler(*job); err != nil {
			log.Error().Err(err).
				Str("company", job.CompanyName).
				Str("source", string(job.Source)).
				Msg("job handler failed")
		}
	}
}

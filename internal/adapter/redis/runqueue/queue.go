package runqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

var _ secondary.RunQueue = (*RunQueue)(nil)

// RunQueue is a Redis list of planned result IDs shared by every dispatcher process
type RunQueue struct {
	redisClient *redis.Client
	key         string
	pollTimeout time.Duration
	logger      primary.Logger
}

func NewRunQueue(redisClient *redis.Client, key string, pollTimeout time.Duration, logger primary.Logger) *RunQueue {
	return &RunQueue{
		redisClient: redisClient,
		key:         key,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

func (q *RunQueue) Enqueue(ctx context.Context, resultID uuid.UUID) error {
	if err := q.redisClient.LPush(ctx, q.key, resultID.String()).Err(); err != nil {
		return fmt.Errorf("failed to push result %s: %w", resultID, err)
	}
	return nil
}

// Dequeue blocks up to the poll timeout for the oldest queued result
func (q *RunQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	values, err := q.redisClient.BRPop(ctx, q.pollTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, secondary.ErrQueueEmpty
	}
	if err != nil {
		if ctx.Err() != nil {
			return uuid.Nil, ctx.Err()
		}
		return uuid.Nil, fmt.Errorf("failed to pop result: %w", err)
	}
	// BRPOP replies with the key and the value
	if len(values) != 2 {
		return uuid.Nil, fmt.Errorf("unexpected reply from queue: %v", values)
	}
	id, err := uuid.Parse(values[1])
	if err != nil {
		q.logger.Error("Dropping malformed queue entry", "entry", values[1], "error", err)
		return uuid.Nil, fmt.Errorf("malformed queue entry %q: %w", values[1], err)
	}
	return id, nil
}

// Len returns the number of queued results
func (q *RunQueue) Len(ctx context.Context) (int64, error) {
	return q.redisClient.LLen(ctx, q.key).Result()
}

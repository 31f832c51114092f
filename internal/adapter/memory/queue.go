package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

var _ secondary.RunQueue = (*RunQueue)(nil)

// RunQueue is an in-process run queue for single binary deployments
type RunQueue struct {
	items       chan uuid.UUID
	pollTimeout time.Duration
}

func NewRunQueue(size int, pollTimeout time.Duration) *RunQueue {
	if size <= 0 {
		size = 1024
	}
	return &RunQueue{
		items:       make(chan uuid.UUID, size),
		pollTimeout: pollTimeout,
	}
}

func (q *RunQueue) Enqueue(ctx context.Context, resultID uuid.UUID) error {
	select {
	case q.items <- resultID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *RunQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	var timeout <-chan time.Time
	if q.pollTimeout > 0 {
		timer := time.NewTimer(q.pollTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case id := <-q.items:
		return id, nil
	case <-timeout:
		return uuid.Nil, secondary.ErrQueueEmpty
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

package secondary

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrQueueEmpty is returned by Dequeue when nothing arrived before the poll timeout
var ErrQueueEmpty = errors.New("queue empty")

// RunQueue carries planned result IDs from the planner to the dispatcher
type RunQueue interface {
	Enqueue(ctx context.Context, resultID uuid.UUID) error
	Dequeue(ctx context.Context) (uuid.UUID, error)
}

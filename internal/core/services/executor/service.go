package executor

import (
	"context"

	"github.com/google/uuid"
)

// IExecutorService runs a planned result level by level and records every step outcome
type IExecutorService interface {
	Execute(ctx context.Context, resultID uuid.UUID) error
}

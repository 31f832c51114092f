package primary

import (
	"context"

	"github.com/google/uuid"
)

// RunExecutor executes one planned result end to end
type RunExecutor interface {
	Execute(ctx context.Context, resultID uuid.UUID) error
}

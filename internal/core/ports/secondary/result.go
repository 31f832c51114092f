package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/domain"
)

// ResultRepository stores grading runs and their outcomes
type ResultRepository interface {
	// CreateResult persists a result with all of its level and step outputs atomically
	CreateResult(ctx context.Context, result *domain.Result) error

	// GetResult retrieves a result tree by ID, nil when absent
	GetResult(ctx context.Context, resultID uuid.UUID) (*domain.Result, error)

	// GetLatestResult retrieves the newest result of a submission, nil when there is none
	GetLatestResult(ctx context.Context, submissionID uuid.UUID) (*domain.Result, error)

	// ListResults retrieves every result of a submission, newest first
	ListResults(ctx context.Context, submissionID uuid.UUID) ([]*domain.Result, error)

	// SaveStepOutcome writes the outcome fields of one step output
	SaveStepOutcome(ctx context.Context, step *domain.StepOutput) error
}

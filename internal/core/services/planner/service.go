package planner

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/domain"
)

// IPlannerService turns submissions into planned, queued results
type IPlannerService interface {
	// TriggerRun snapshots the assignment tree into a new result and queues it for execution
	TriggerRun(ctx context.Context, submissionID uuid.UUID) (*domain.Result, error)

	// RerunAssignment triggers a run for every submission of the assignment in the class
	// and returns how many were queued
	RerunAssignment(ctx context.Context, classID, assignmentID uuid.UUID) (int, error)
}

package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/domain"
)

type AssignmentRepository interface {
	// GetAssignment retrieves the assignment with fixture, file schema and ordered level tree
	GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Assignment, error)
}

type SubmissionRepository interface {
	// GetSubmission retrieves a submission and its files, nil when absent
	GetSubmission(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error)

	// ListSubmissionIDs lists the submissions of an assignment made in a class
	ListSubmissionIDs(ctx context.Context, classID, assignmentID uuid.UUID) ([]uuid.UUID, error)
}

type RosterRepository interface {
	// IsInstructor reports whether the user teaches the class
	IsInstructor(ctx context.Context, userID, classID uuid.UUID) (bool, error)
}

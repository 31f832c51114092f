package results

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/domain"
)

// IResultService serves grading results to authorized viewers
type IResultService interface {
	// Latest returns the newest result of the submission, or errs.ErrNotFound when it has none
	Latest(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (*domain.ResultView, error)

	// History returns every result of the submission, newest first
	History(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) ([]*domain.ResultView, error)

	// AuthorizeSubmission allows the submitter and the instructors of the submission's class
	AuthorizeSubmission(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (instructor bool, err error)

	// AuthorizeClass allows instructors of the class only
	AuthorizeClass(ctx context.Context, viewer domain.AuthPayload, classID uuid.UUID) error
}

package results

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

var _ IResultService = (*ResultService)(nil)

type ResultService struct {
	submissionRepo secondary.SubmissionRepository
	rosterRepo     secondary.RosterRepository
	resultRepo     secondary.ResultRepository
	logger         primary.Logger
}

func NewResultService(
	submissionRepo secondary.SubmissionRepository,
	rosterRepo secondary.RosterRepository,
	resultRepo secondary.ResultRepository,
	logger primary.Logger,
) *ResultService {
	return &ResultService{
		submissionRepo: submissionRepo,
		rosterRepo:     rosterRepo,
		resultRepo:     resultRepo,
		logger:         logger,
	}
}

func (s *ResultService) Latest(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (*domain.ResultView, error) {
	instructor, err := s.AuthorizeSubmission(ctx, viewer, submissionID)
	if err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetLatestResult(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to get latest result", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("result of submission %s: %w", submissionID, errs.ErrNotFound)
	}
	return domain.ViewFor(result, instructor), nil
}

func (s *ResultService) History(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) ([]*domain.ResultView, error) {
	instructor, err := s.AuthorizeSubmission(ctx, viewer, submissionID)
	if err != nil {
		return nil, err
	}

	list, err := s.resultRepo.ListResults(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to list results", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	views := make([]*domain.ResultView, 0, len(list))
	for _, r := range list {
		views = append(views, domain.ViewFor(r, instructor))
	}
	return views, nil
}

func (s *ResultService) AuthorizeSubmission(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (bool, error) {
	submission, err := s.submissionRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to get submission", "submissionId", submissionID, "error", err)
		return false, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return false, fmt.Errorf("submission %s: %w", submissionID, errs.ErrNotFound)
	}

	instructor, err := s.rosterRepo.IsInstructor(ctx, viewer.UserID, submission.ClassID)
	if err != nil {
		s.logger.Error("Failed to check roster", "classId", submission.ClassID, "error", err)
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	if !instructor && submission.SubmitterID != viewer.UserID {
		return false, errs.ErrForbidden
	}
	return instructor, nil
}

func (s *ResultService) AuthorizeClass(ctx context.Context, viewer domain.AuthPayload, classID uuid.UUID) error {
	instructor, err := s.rosterRepo.IsInstructor(ctx, viewer.UserID, classID)
	if err != nil {
		s.logger.Error("Failed to check roster", "classId", classID, "error", err)
		return fmt.Errorf("failed to check roster: %w", err)
	}
	if !instructor {
		return errs.ErrForbidden
	}
	return nil
}

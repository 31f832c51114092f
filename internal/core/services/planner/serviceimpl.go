package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

var _ IPlannerService = (*PlannerService)(nil)

type PlannerService struct {
	submissionRepo secondary.SubmissionRepository
	assignmentRepo secondary.AssignmentRepository
	resultRepo     secondary.ResultRepository
	queue          secondary.RunQueue
	logger         primary.Logger
	now            func() time.Time
}

func NewPlannerService(
	submissionRepo secondary.SubmissionRepository,
	assignmentRepo secondary.AssignmentRepository,
	resultRepo secondary.ResultRepository,
	queue secondary.RunQueue,
	logger primary.Logger,
) *PlannerService {
	return &PlannerService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		resultRepo:     resultRepo,
		queue:          queue,
		logger:         logger,
		now:            time.Now,
	}
}

// TriggerRun snapshots the assignment tree into a new result and queues it for execution.
// Every call appends a new result; concurrent runs of one submission are not deduplicated.
func (s *PlannerService) TriggerRun(ctx context.Context, submissionID uuid.UUID) (*domain.Result, error) {
	s.logger.Info("Triggering run", "submissionId", submissionID)

	submission, err := s.submissionRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to get submission", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("%w: failed to get submission: %w", errs.ErrRunNotStarted, err)
	}
	if submission == nil {
		return nil, fmt.Errorf("submission %s: %w", submissionID, errs.ErrNotFound)
	}

	assignment, err := s.assignmentRepo.GetAssignment(ctx, submission.AssignmentID)
	if err != nil {
		s.logger.Error("Failed to get assignment", "assignmentId", submission.AssignmentID, "error", err)
		return nil, fmt.Errorf("%w: failed to get assignment: %w", errs.ErrRunNotStarted, err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %s: %w", submission.AssignmentID, errs.ErrNotFound)
	}

	for _, level := range assignment.Levels {
		if err := level.Validate(); err != nil {
			s.logger.Error("Invalid level definition", "assignmentId", assignment.ID, "error", err)
			return nil, fmt.Errorf("%w: %w", errs.ErrRunNotStarted, err)
		}
	}

	// Grading still happens when files are missing; the steps decide what that means
	if missing := assignment.FileSchema.Missing(submission.Files); len(missing) > 0 {
		s.logger.Warn("Submission is missing required files", "submissionId", submissionID, "missing", missing)
	}

	switch {
	case assignment.PastLateDue(submission.CreatedAt):
		s.logger.Warn("Grading submission made after the late deadline", "submissionId", submissionID)
	case assignment.PastDue(submission.CreatedAt):
		s.logger.Info("Grading late submission", "submissionId", submissionID)
	}

	result := domain.NewResult(submission.ID, assignment.Levels, s.now())

	if err := s.resultRepo.CreateResult(ctx, result); err != nil {
		s.logger.Error("Failed to create result", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("%w: failed to create result: %w", errs.ErrRunNotStarted, err)
	}

	if err := s.queue.Enqueue(ctx, result.ID); err != nil {
		s.logger.Error("Failed to enqueue result", "resultId", result.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to enqueue result: %w", errs.ErrRunNotStarted, err)
	}

	s.logger.Info("Run queued", "submissionId", submissionID, "resultId", result.ID,
		"totalPoints", assignment.TotalPoints())
	return result, nil
}

// RerunAssignment triggers a run for every submission of the assignment in the class.
// It keeps going past individual failures and reports them joined.
func (s *PlannerService) RerunAssignment(ctx context.Context, classID, assignmentID uuid.UUID) (int, error) {
	ids, err := s.submissionRepo.ListSubmissionIDs(ctx, classID, assignmentID)
	if err != nil {
		s.logger.Error("Failed to list submissions", "classId", classID, "assignmentId", assignmentID, "error", err)
		return 0, fmt.Errorf("%w: failed to list submissions: %w", errs.ErrRunNotStarted, err)
	}

	queued := 0
	var errList []error
	for _, id := range ids {
		if _, err := s.TriggerRun(ctx, id); err != nil {
			errList = append(errList, fmt.Errorf("submission %s: %w", id, err))
			continue
		}
		queued++
	}

	s.logger.Info("Assignment rerun queued", "classId", classID, "assignmentId", assignmentID,
		"queued", queued, "failed", len(errList))
	return queued, errors.Join(errList...)
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"gitlab.com/codemark.net/internal/config"
	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

var _ IExecutorService = (*ExecutorService)(nil)
var _ primary.RunExecutor = (*ExecutorService)(nil)

type ExecutorService struct {
	resultRepo     secondary.ResultRepository
	submissionRepo secondary.SubmissionRepository
	assignmentRepo secondary.AssignmentRepository
	runtime        secondary.ContainerRuntime
	publisher      secondary.UpdatePublisher
	observer       secondary.RunObserver
	logger         primary.Logger

	workspaces *workspaces
	mountPath  string
	shell      []string
	imageRefs  map[string]string
}

func NewExecutorService(
	cfg *config.ExecutorConfig,
	resultRepo secondary.ResultRepository,
	submissionRepo secondary.SubmissionRepository,
	assignmentRepo secondary.AssignmentRepository,
	runtime secondary.ContainerRuntime,
	publisher secondary.UpdatePublisher,
	hostFs afero.Fs,
	mediaFs afero.Fs,
	logger primary.Logger,
) (*ExecutorService, error) {
	shell, err := shlex.Split(cfg.ExecShell)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exec shell %q: %w", cfg.ExecShell, err)
	}
	if len(shell) == 0 {
		return nil, fmt.Errorf("exec shell must not be empty")
	}
	return &ExecutorService{
		resultRepo:     resultRepo,
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		runtime:        runtime,
		publisher:      publisher,
		observer:       noopObserver{},
		logger:         logger,
		workspaces: &workspaces{
			fs:    hostFs,
			media: mediaFs,
			root:  cfg.WorkspaceRoot,
		},
		mountPath: cfg.MountPath,
		shell:     shell,
		imageRefs: cfg.ImageRefs,
	}, nil
}

// SetObserver sets the receiver of execution events
func (s *ExecutorService) SetObserver(observer secondary.RunObserver) {
	if observer != nil {
		s.observer = observer
	}
}

// Execute runs every level of the result in order. Step failures are recorded
// on the step and never abort the run; only failures to load the run or to
// persist outcomes are returned.
func (s *ExecutorService) Execute(ctx context.Context, resultID uuid.UUID) (err error) {
	start := time.Now()
	defer func() {
		s.observer.RunFinished(time.Since(start), err)
	}()

	result, err := s.resultRepo.GetResult(ctx, resultID)
	if err != nil {
		s.logger.Error("Failed to get result", "resultId", resultID, "error", err)
		return fmt.Errorf("failed to get result: %w", err)
	}
	if result == nil {
		return fmt.Errorf("result %s: %w", resultID, errs.ErrNotFound)
	}

	submission, err := s.submissionRepo.GetSubmission(ctx, result.SubmissionID)
	if err != nil {
		s.logger.Error("Failed to get submission", "submissionId", result.SubmissionID, "error", err)
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return fmt.Errorf("submission %s: %w", result.SubmissionID, errs.ErrNotFound)
	}

	assignment, err := s.assignmentRepo.GetAssignment(ctx, submission.AssignmentID)
	if err != nil {
		s.logger.Error("Failed to get assignment", "assignmentId", submission.AssignmentID, "error", err)
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	var fixture *domain.Fixture
	if assignment != nil {
		fixture = assignment.Fixture
	}

	s.logger.Info("Executing result", "resultId", result.ID, "submissionId", result.SubmissionID)

	result.SortLevels()
	var errList []error
	for _, level := range result.Levels {
		if err := s.runLevel(ctx, result, level, fixture, submission.Files); err != nil {
			errList = append(errList, err)
		}
	}

	s.logger.Info("Result executed", "resultId", result.ID, "grade", result.Grade(),
		"totalPoints", result.TotalPoints(), "elapsed", time.Since(start))
	return errors.Join(errList...)
}

func (s *ExecutorService) runLevel(
	ctx context.Context,
	result *domain.Result,
	level *domain.LevelOutput,
	fixture *domain.Fixture,
	files []domain.File,
) error {
	dir, err := s.workspaces.acquire(result.ID, level.Number)
	if err != nil {
		s.logger.Error("Failed to acquire workspace", "resultId", result.ID, "level", level.Number, "error", err)
		return s.failLevel(ctx, result, level)
	}
	defer func() {
		if err := s.workspaces.release(dir); err != nil {
			s.logger.Error("Failed to remove workspace", "resultId", result.ID, "dir", dir, "error", err)
		}
	}()

	if err := s.workspaces.populate(dir, fixture, files); err != nil {
		s.logger.Error("Failed to populate workspace", "resultId", result.ID, "level", level.Number, "error", err)
		return s.failLevel(ctx, result, level)
	}

	env, err := s.runtime.Create(ctx, s.imageRef(level.Image), secondary.Mount{Source: dir, Target: s.mountPath})
	if err != nil {
		s.logger.Error("Failed to create environment", "resultId", result.ID, "image", level.Image, "error", err)
		s.observer.EnvironmentFailed(level.Image)
		return s.failLevel(ctx, result, level)
	}
	defer func() {
		// cleanup still runs when the dispatcher is shutting down
		if err := s.runtime.Stop(context.WithoutCancel(ctx), env); err != nil {
			s.logger.Error("Failed to stop container", "resultId", result.ID, "container", env.ID, "error", err)
		}
	}()

	var errList []error
	for _, step := range level.Steps {
		if err := s.runStep(ctx, env, result, level, step); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

func (s *ExecutorService) runStep(
	ctx context.Context,
	env *secondary.Environment,
	result *domain.Result,
	level *domain.LevelOutput,
	step *domain.StepOutput,
) error {
	req := secondary.ExecRequest{Cmd: s.command(step.Command)}
	switch step.Kind {
	case domain.StepKindRun:
	case domain.StepKindTest:
		req.Combined = true
	default:
		s.logger.Error("Unknown step kind", "resultId", result.ID, "stepId", step.ID, "kind", step.Kind)
		return s.record(ctx, result, step, domain.OutcomeExecutionError)
	}

	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout)
	defer cancel()

	start := time.Now()
	res, err := s.runtime.Exec(stepCtx, env, req)
	elapsed := time.Since(start)

	switch {
	case err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		step.TimedOut = boolPtr(true)
		step.Outcome = domain.OutcomeTimedOut
		s.logger.Info("Step timed out", "resultId", result.ID, "step", step.Name, "timeout", step.Timeout)
	case err != nil:
		step.TimedOut = boolPtr(false)
		step.Outcome = domain.OutcomeExecutionError
		s.logger.Warn("Step execution failed", "resultId", result.ID, "step", step.Name, "error", err)
	default:
		step.TimedOut = boolPtr(false)
		step.Outcome = domain.OutcomeSuccess
		if step.Kind == domain.StepKindTest {
			step.ActualOutput = decode(res.Stdout)
		} else {
			step.Stdout = decode(res.Stdout)
			step.Stderr = decode(res.Stderr)
		}
		s.logger.Debug("Step executed", "resultId", result.ID, "step", step.Name, "exitCode", res.ExitCode)
	}
	s.observer.StepFinished(step.Kind, level.Image, step.Outcome, elapsed)

	return s.persist(ctx, result, step)
}

// failLevel records every step of a level that could not get an environment
func (s *ExecutorService) failLevel(ctx context.Context, result *domain.Result, level *domain.LevelOutput) error {
	var errList []error
	for _, step := range level.Steps {
		if err := s.record(ctx, result, step, domain.OutcomeExecutionError); err != nil {
			errList = append(errList, err)
		}
		s.observer.StepFinished(step.Kind, level.Image, step.Outcome, 0)
	}
	return errors.Join(errList...)
}

func (s *ExecutorService) record(ctx context.Context, result *domain.Result, step *domain.StepOutput, outcome domain.Outcome) error {
	step.TimedOut = boolPtr(false)
	step.Outcome = outcome
	return s.persist(ctx, result, step)
}

// persist saves the step outcome then announces the result change.
// Outcomes are saved even when the run is being cancelled.
func (s *ExecutorService) persist(ctx context.Context, result *domain.Result, step *domain.StepOutput) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.resultRepo.SaveStepOutcome(ctx, step); err != nil {
		s.logger.Error("Failed to save step outcome", "resultId", result.ID, "stepId", step.ID, "error", err)
		return fmt.Errorf("failed to save step %s: %w", step.ID, err)
	}
	update := domain.ResultUpdate{SubmissionID: result.SubmissionID, ResultID: result.ID}
	if err := s.publisher.Publish(ctx, update); err != nil {
		s.logger.Warn("Failed to publish result update", "resultId", result.ID, "error", err)
	}
	return nil
}

func (s *ExecutorService) command(cmd string) []string {
	argv := make([]string, 0, len(s.shell)+1)
	argv = append(argv, s.shell...)
	return append(argv, cmd)
}

func (s *ExecutorService) imageRef(image domain.Image) string {
	if ref, ok := s.imageRefs[string(image)]; ok {
		return ref
	}
	if ref, ok := defaultImageRefs[image]; ok {
		return ref
	}
	return string(image)
}

var defaultImageRefs = map[domain.Image]string{
	domain.ImageJava: "eclipse-temurin",
}

type noopObserver struct{}

func (noopObserver) StepFinished(domain.StepKind, domain.Image, domain.Outcome, time.Duration) {}
func (noopObserver) RunFinished(time.Duration, error)                                          {}
func (noopObserver) EnvironmentFailed(domain.Image)                                            {}

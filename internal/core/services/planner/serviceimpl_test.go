package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/adapter/memory"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, resultID uuid.UUID) error {
	return errors.New("broker down")
}

func (failingQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	return uuid.Nil, errors.New("broker down")
}

type fixture struct {
	store      *memory.Store
	queue      *memory.RunQueue
	assignment *domain.Assignment
	submission *domain.Submission
}

func newFixture() *fixture {
	store := memory.NewStore()
	assignment := &domain.Assignment{
		ID:         uuid.New(),
		Name:       "hello",
		FileSchema: &domain.FileSchema{FileNames: []string{"main.py"}},
		Levels: []*domain.Level{
			{ID: uuid.New(), Name: "run", Image: domain.ImagePython, Steps: []*domain.Step{
				{ID: uuid.New(), Kind: domain.StepKindRun, Name: "run", Number: 1, Weight: 10, Command: "python main.py", Timeout: time.Second},
				{ID: uuid.New(), Kind: domain.StepKindTest, Name: "check", Number: 2, Weight: 5, Command: "python main.py", Timeout: time.Second, ExpectedOutput: "hi"},
			}},
		},
	}
	submission := &domain.Submission{
		ID:           uuid.New(),
		SubmitterID:  uuid.New(),
		AssignmentID: assignment.ID,
		ClassID:      uuid.New(),
		CreatedAt:    time.Now(),
	}
	store.PutAssignment(assignment)
	store.PutSubmission(submission)
	return &fixture{
		store:      store,
		queue:      memory.NewRunQueue(16, 10*time.Millisecond),
		assignment: assignment,
		submission: submission,
	}
}

func (f *fixture) service(t *testing.T) *PlannerService {
	logger := logging.NewZapLoggerFrom(zaptest.NewLogger(t))
	return NewPlannerService(f.store, f.store, f.store, f.queue, logger)
}

func TestTriggerRunPersistsAndQueues(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := f.service(t)

	result, err := svc.TriggerRun(ctx, f.submission.ID)
	if err != nil {
		t.Fatalf("TriggerRun: %v", err)
	}

	stored, err := f.store.GetResult(ctx, result.ID)
	if err != nil || stored == nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if len(stored.Levels) != 1 || len(stored.Levels[0].Steps) != 2 {
		t.Fatalf("unexpected tree: %+v", stored)
	}
	if stored.Levels[0].Image != domain.ImagePython {
		t.Errorf("image not copied: %q", stored.Levels[0].Image)
	}

	queued, err := f.queue.Dequeue(ctx)
	if err != nil || queued != result.ID {
		t.Errorf("Dequeue() = %s, %v; want %s", queued, err, result.ID)
	}
	if _, err := f.queue.Dequeue(ctx); err == nil {
		t.Error("more than one job queued")
	}
}

func TestTriggerRunTwiceCreatesIndependentResults(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := f.service(t)

	first, err := svc.TriggerRun(ctx, f.submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	f.assignment.Levels[0].Steps[0].Weight = 50
	second, err := svc.TriggerRun(ctx, f.submission.ID)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID {
		t.Fatal("runs share a result")
	}
	results, _ := f.store.ListResults(ctx, f.submission.ID)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	reloaded, _ := f.store.GetResult(ctx, first.ID)
	if reloaded.Levels[0].Steps[0].Weight != 10 {
		t.Error("assignment edit reached an existing result")
	}
	if second.Levels[0].Steps[0].Weight != 50 {
		t.Error("new run did not pick up the edit")
	}
}

func TestTriggerRunErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown submission", func(t *testing.T) {
		f := newFixture()
		_, err := f.service(t).TriggerRun(ctx, uuid.New())
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("enqueue failure", func(t *testing.T) {
		f := newFixture()
		logger := logging.NewZapLoggerFrom(zaptest.NewLogger(t))
		svc := NewPlannerService(f.store, f.store, f.store, failingQueue{}, logger)
		_, err := svc.TriggerRun(ctx, f.submission.ID)
		if !errors.Is(err, errs.ErrRunNotStarted) {
			t.Errorf("got %v, want ErrRunNotStarted", err)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		f := newFixture()
		f.assignment.Levels[0].Steps[1].Number = 1
		_, err := f.service(t).TriggerRun(ctx, f.submission.ID)
		if !errors.Is(err, errs.ErrRunNotStarted) {
			t.Errorf("got %v, want ErrRunNotStarted", err)
		}
	})
}

func TestRerunAssignment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	other := &domain.Submission{
		ID:           uuid.New(),
		SubmitterID:  uuid.New(),
		AssignmentID: f.assignment.ID,
		ClassID:      f.submission.ClassID,
		CreatedAt:    time.Now(),
	}
	elsewhere := &domain.Submission{
		ID:           uuid.New(),
		AssignmentID: f.assignment.ID,
		ClassID:      uuid.New(),
	}
	f.store.PutSubmission(other)
	f.store.PutSubmission(elsewhere)

	queued, err := f.service(t).RerunAssignment(ctx, f.submission.ClassID, f.assignment.ID)
	if err != nil {
		t.Fatalf("RerunAssignment: %v", err)
	}
	if queued != 2 {
		t.Errorf("queued %d runs, want 2", queued)
	}
	if results, _ := f.store.ListResults(ctx, elsewhere.ID); len(results) != 0 {
		t.Error("submission from another class was rerun")
	}
}

func TestTriggerRunLogsDeadlinePolicy(t *testing.T) {
	created := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	deadline := created.Add(-24 * time.Hour)
	lateDeadline := created.Add(-time.Hour)

	tests := []struct {
		name         string
		deadline     *time.Time
		lateDeadline *time.Time
		want         string
	}{
		{"on time", nil, nil, ""},
		{"late", &deadline, nil, "Grading late submission"},
		{"past late deadline", &deadline, &lateDeadline, "Grading submission made after the late deadline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.submission.CreatedAt = created
			f.store.PutSubmission(f.submission)
			f.assignment.Deadline = tt.deadline
			f.assignment.LateDeadline = tt.lateDeadline

			core, logs := observer.New(zapcore.DebugLevel)
			svc := NewPlannerService(f.store, f.store, f.store, f.queue, logging.NewZapLoggerFrom(zap.New(core)))
			if _, err := svc.TriggerRun(context.Background(), f.submission.ID); err != nil {
				t.Fatalf("TriggerRun: %v", err)
			}

			late := logs.FilterMessageSnippet("late").All()
			switch {
			case tt.want == "" && len(late) != 0:
				t.Errorf("unexpected deadline log %q", late[0].Message)
			case tt.want != "" && (len(late) != 1 || late[0].Message != tt.want):
				t.Errorf("deadline logs = %v, want %q", late, tt.want)
			}

			queued := logs.FilterMessage("Run queued").All()
			if len(queued) != 1 || queued[0].ContextMap()["totalPoints"] != int64(15) {
				t.Errorf("Run queued entry = %v, want totalPoints 15", queued)
			}
		})
	}
}

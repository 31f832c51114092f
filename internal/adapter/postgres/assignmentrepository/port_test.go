package assignmentrepository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"

	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/domain"
)

func newRepo(t *testing.T) (*AssignmentRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return NewAssignmentRepository(sqlx.NewDb(mockDB, "postgres"), logging.NewZapLoggerFrom(zaptest.NewLogger(t))), mock
}

var stepCols = []string{
	"id", "level_id", "kind", "name", "number", "weight", "hidden", "command",
	"timeout_ms", "expected_output", "case_insensitive", "strip_whitespace",
}

func TestGetAssignmentLoadsTree(t *testing.T) {
	repo, mock := newRepo(t)
	assignmentID, fixtureID, schemaID := uuid.New(), uuid.New(), uuid.New()
	buildID, testID := uuid.New(), uuid.New()
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments a")).
		WithArgs(assignmentID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "deadline", "late_deadline", "submission_limit", "cool_off_ms",
			"fixture_id", "fixture_name", "file_schema_id", "file_schema_name",
		}).AddRow(assignmentID.String(), "Lab 1", deadline, nil, 3, int64(60000),
			fixtureID.String(), "harness", schemaID.String(), "lab1"))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN fixture_files")).
		WithArgs(fixtureID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "path"}).
			AddRow(uuid.New().String(), "test.sh", "fixtures/test.sh"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM file_schema_names")).
		WithArgs(schemaID).
		WillReturnRows(sqlmock.NewRows([]string{"file_name"}).AddRow("main.py"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM levels WHERE assignment_id")).
		WithArgs(assignmentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "container"}).
			AddRow(buildID.String(), "build", "python").
			AddRow(testID.String(), "test", "alpine"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM steps s")).
		WithArgs(assignmentID).
		WillReturnRows(sqlmock.NewRows(stepCols).
			AddRow(uuid.New().String(), buildID.String(), "RunStep", "compile", 1, 5, false, "python -m py_compile main.py", int64(2000), "", false, false).
			AddRow(uuid.New().String(), testID.String(), "TestStep", "greets", 1, 10, true, "python main.py", int64(1500), "hi", true, true).
			AddRow(uuid.New().String(), testID.String(), "RunStep", "lint", 2, 0, false, "true", int64(1000), "", false, false))

	a, err := repo.GetAssignment(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("GetAssignment() error = %v", err)
	}
	if a.Name != "Lab 1" || a.SubmissionLimit != 3 || a.CoolOff != time.Minute || a.LateDeadline != nil {
		t.Errorf("unexpected assignment %+v", a)
	}
	if a.Deadline == nil || !a.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v", a.Deadline)
	}
	if a.Fixture == nil || a.Fixture.Name != "harness" || len(a.Fixture.Files) != 1 || a.Fixture.Files[0].BaseName() != "test.sh" {
		t.Errorf("unexpected fixture %+v", a.Fixture)
	}
	if a.FileSchema == nil || len(a.FileSchema.FileNames) != 1 || a.FileSchema.FileNames[0] != "main.py" {
		t.Errorf("unexpected file schema %+v", a.FileSchema)
	}
	if len(a.Levels) != 2 || a.Levels[0].Image != domain.ImagePython || a.Levels[1].Image != domain.ImageAlpine {
		t.Fatalf("unexpected levels %+v", a.Levels)
	}
	if len(a.Levels[0].Steps) != 1 || len(a.Levels[1].Steps) != 2 {
		t.Fatalf("steps not grouped by level")
	}
	greets := a.Levels[1].Steps[0]
	if greets.Kind != domain.StepKindTest || greets.Timeout != 1500*time.Millisecond || !greets.Hidden ||
		greets.ExpectedOutput != "hi" || !greets.CaseInsensitive || !greets.StripWhitespace {
		t.Errorf("unexpected step %+v", greets)
	}
	if err := a.Levels[1].Validate(); err != nil {
		t.Errorf("loaded level invalid: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetAssignmentMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments a")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	a, err := repo.GetAssignment(context.Background(), uuid.New())
	if err != nil || a != nil {
		t.Errorf("got %+v, %v; want nil, nil", a, err)
	}
}

func TestGetSubmission(t *testing.T) {
	repo, mock := newRepo(t)
	submissionID, submitterID, assignmentID, classID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions")).
		WithArgs(submissionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitter_id", "assignment_id", "enrolled_class_id", "created_at"}).
			AddRow(submissionID.String(), submitterID.String(), assignmentID.String(), classID.String(), created))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN submission_files")).
		WithArgs(submissionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "path"}).
			AddRow(uuid.New().String(), "main.py", "submissions/abc/main.py"))

	s, err := repo.GetSubmission(context.Background(), submissionID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if s.SubmitterID != submitterID || s.AssignmentID != assignmentID || s.ClassID != classID || !s.CreatedAt.Equal(created) {
		t.Errorf("unexpected submission %+v", s)
	}
	if len(s.Files) != 1 || s.Files[0].Path != "submissions/abc/main.py" {
		t.Errorf("unexpected files %+v", s.Files)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if s, err := repo.GetSubmission(context.Background(), uuid.New()); err != nil || s != nil {
		t.Errorf("missing submission: got %+v, %v", s, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListSubmissionIDs(t *testing.T) {
	repo, mock := newRepo(t)
	classID, assignmentID := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE enrolled_class_id = $1 AND assignment_id = $2")).
		WithArgs(classID, assignmentID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.String()).AddRow(b.String()))

	ids, err := repo.ListSubmissionIDs(context.Background(), classID, assignmentID)
	if err != nil {
		t.Fatalf("ListSubmissionIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("got %v", ids)
	}
}

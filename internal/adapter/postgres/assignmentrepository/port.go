// Package assignmentrepository reads assignment definitions and submissions
// owned by the course management layer
package assignmentrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var (
	_ secondary.AssignmentRepository = (*AssignmentRepository)(nil)
	_ secondary.SubmissionRepository = (*AssignmentRepository)(nil)
)

type AssignmentRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewAssignmentRepository(db *sqlx.DB, logger primary.Logger) *AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

type assignmentRow struct {
	ID              uuid.UUID  `db:"id"`
	Name            string     `db:"name"`
	Deadline        *time.Time `db:"deadline"`
	LateDeadline    *time.Time `db:"late_deadline"`
	SubmissionLimit int        `db:"submission_limit"`
	CoolOffMs       int64      `db:"cool_off_ms"`
	FixtureID       *uuid.UUID `db:"fixture_id"`
	FixtureName     *string    `db:"fixture_name"`
	FileSchemaID    *uuid.UUID `db:"file_schema_id"`
	FileSchemaName  *string    `db:"file_schema_name"`
}

type stepRow struct {
	ID              uuid.UUID `db:"id"`
	LevelID         uuid.UUID `db:"level_id"`
	Kind            string    `db:"kind"`
	Name            string    `db:"name"`
	Number          int       `db:"number"`
	Weight          int       `db:"weight"`
	Hidden          bool      `db:"hidden"`
	Command         string    `db:"command"`
	TimeoutMs       int64     `db:"timeout_ms"`
	ExpectedOutput  string    `db:"expected_output"`
	CaseInsensitive bool      `db:"case_insensitive"`
	StripWhitespace bool      `db:"strip_whitespace"`
}

// GetAssignment retrieves the assignment with its fixture, file schema and level tree.
// Levels come back in authoring order and steps ordered by number.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Assignment, error) {
	query := `
		SELECT
			a.id, a.name, a.deadline, a.late_deadline, a.submission_limit, a.cool_off_ms,
			a.fixture_id, f.name AS fixture_name,
			a.file_schema_id, fs.name AS file_schema_name
		FROM assignments a
		LEFT JOIN fixtures f ON f.id = a.fixture_id
		LEFT JOIN file_schemas fs ON fs.id = a.file_schema_id
		WHERE a.id = $1
	`
	var row assignmentRow
	if err := r.db.GetContext(ctx, &row, query, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get assignment", "assignmentId", assignmentID, "error", err)
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	assignment := &domain.Assignment{
		ID:              row.ID,
		Name:            row.Name,
		Deadline:        row.Deadline,
		LateDeadline:    row.LateDeadline,
		SubmissionLimit: row.SubmissionLimit,
		CoolOff:         time.Duration(row.CoolOffMs) * time.Millisecond,
	}

	if row.FixtureID != nil {
		files, err := r.fixtureFiles(ctx, *row.FixtureID)
		if err != nil {
			return nil, err
		}
		assignment.Fixture = &domain.Fixture{ID: *row.FixtureID, Name: deref(row.FixtureName), Files: files}
	}

	if row.FileSchemaID != nil {
		var names []string
		err := r.db.SelectContext(ctx, &names,
			`SELECT file_name FROM file_schema_names WHERE file_schema_id = $1 ORDER BY file_name`,
			*row.FileSchemaID)
		if err != nil {
			return nil, fmt.Errorf("failed to get file schema: %w", err)
		}
		assignment.FileSchema = &domain.FileSchema{ID: *row.FileSchemaID, Name: deref(row.FileSchemaName), FileNames: names}
	}

	levels, err := r.levels(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	assignment.Levels = levels

	return assignment, nil
}

func (r *AssignmentRepository) fixtureFiles(ctx context.Context, fixtureID uuid.UUID) ([]domain.File, error) {
	query := `
		SELECT f.id, f.name, f.path
		FROM files f
		JOIN fixture_files ff ON ff.file_id = f.id
		WHERE ff.fixture_id = $1
		ORDER BY f.name
	`
	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, fixtureID); err != nil {
		return nil, fmt.Errorf("failed to get fixture files: %w", err)
	}
	return files, nil
}

func (r *AssignmentRepository) levels(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Level, error) {
	var levels []*domain.Level
	err := r.db.SelectContext(ctx, &levels,
		`SELECT id, name, container FROM levels WHERE assignment_id = $1 ORDER BY position`,
		assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get levels: %w", err)
	}

	query := `
		SELECT
			s.id, ls.level_id, s.kind, s.name, s.number, s.weight, s.hidden, s.command,
			s.timeout_ms, s.expected_output, s.case_insensitive, s.strip_whitespace
		FROM steps s
		JOIN level_steps ls ON ls.step_id = s.id
		JOIN levels l ON l.id = ls.level_id
		WHERE l.assignment_id = $1
		ORDER BY s.number
	`
	var rows []stepRow
	if err := r.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.Level, len(levels))
	for _, l := range levels {
		byID[l.ID] = l
	}
	for _, row := range rows {
		level, ok := byID[row.LevelID]
		if !ok {
			continue
		}
		level.Steps = append(level.Steps, &domain.Step{
			ID:              row.ID,
			Kind:            domain.StepKind(row.Kind),
			Name:            row.Name,
			Number:          row.Number,
			Weight:          row.Weight,
			Hidden:          row.Hidden,
			Command:         row.Command,
			Timeout:         time.Duration(row.TimeoutMs) * time.Millisecond,
			ExpectedOutput:  row.ExpectedOutput,
			CaseInsensitive: row.CaseInsensitive,
			StripWhitespace: row.StripWhitespace,
		})
	}
	return levels, nil
}

// GetSubmission retrieves a submission with its uploaded files
func (r *AssignmentRepository) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	query := `
		SELECT id, submitter_id, assignment_id, enrolled_class_id, created_at
		FROM submissions
		WHERE id = $1
	`
	var submission domain.Submission
	if err := r.db.GetContext(ctx, &submission, query, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get submission", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	filesQuery := `
		SELECT f.id, f.name, f.path
		FROM files f
		JOIN submission_files sf ON sf.file_id = f.id
		WHERE sf.submission_id = $1
		ORDER BY f.name
	`
	if err := r.db.SelectContext(ctx, &submission.Files, filesQuery, submissionID); err != nil {
		return nil, fmt.Errorf("failed to get submission files: %w", err)
	}
	return &submission, nil
}

func (r *AssignmentRepository) ListSubmissionIDs(ctx context.Context, classID, assignmentID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM submissions
		WHERE enrolled_class_id = $1 AND assignment_id = $2
		ORDER BY created_at
	`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, classID, assignmentID); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return ids, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

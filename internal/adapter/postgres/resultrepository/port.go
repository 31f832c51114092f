package resultrepository

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

var _ secondary.ResultRepository = (*ResultRepository)(nil)

// ResultRepository implements the ResultRepository interface with PostgreSQL
type ResultRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewResultRepository(db *sqlx.DB, logger primary.Logger) *ResultRepository {
	return &ResultRepository{
		db:     db,
		logger: logger,
	}
}

type stepOutputRow struct {
	ID              uuid.UUID `db:"id"`
	LevelOutputID   uuid.UUID `db:"level_output_id"`
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
	Stdout          *string   `db:"stdout"`
	Stderr          *string   `db:"stderr"`
	ActualOutput    *string   `db:"actual_output"`
	TimedOut        *bool     `db:"timed_out"`
	Outcome         string    `db:"outcome"`
}

func (row stepOutputRow) toDomain() *domain.StepOutput {
	return &domain.StepOutput{
		ID:              row.ID,
		LevelOutputID:   row.LevelOutputID,
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
		Stdout:          row.Stdout,
		Stderr:          row.Stderr,
		ActualOutput:    row.ActualOutput,
		TimedOut:        row.TimedOut,
		Outcome:         domain.Outcome(row.Outcome),
	}
}

// CreateResult inserts the result with every level and step output in one transaction
func (r *ResultRepository) CreateResult(ctx context.Context, result *domain.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, submission_id, created_at) VALUES ($1, $2, $3)`,
		result.ID, result.SubmissionID, result.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert result", "resultId", result.ID, "error", err)
		return fmt.Errorf("failed to insert result: %w", err)
	}

	for _, level := range result.Levels {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO level_outputs (id, result_id, number, name, container) VALUES ($1, $2, $3, $4, $5)`,
			level.ID, result.ID, level.Number, level.Name, string(level.Image))
		if err != nil {
			r.logger.Error("Failed to insert level output", "resultId", result.ID, "error", err)
			return fmt.Errorf("failed to insert level output: %w", err)
		}

		for _, step := range level.Steps {
			query := `
				INSERT INTO step_outputs (
					id, level_output_id, kind, name, number, weight, hidden, command, timeout_ms,
					expected_output, case_insensitive, strip_whitespace,
					stdout, stderr, actual_output, timed_out, outcome
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			`
			_, err = tx.ExecContext(ctx, query,
				step.ID, level.ID, string(step.Kind), step.Name, step.Number, step.Weight, step.Hidden,
				step.Command, step.Timeout.Milliseconds(),
				step.ExpectedOutput, step.CaseInsensitive, step.StripWhitespace,
				step.Stdout, step.Stderr, step.ActualOutput, step.TimedOut, string(outcomeOf(step)),
			)
			if err != nil {
				r.logger.Error("Failed to insert step output", "resultId", result.ID, "error", err)
				return fmt.Errorf("failed to insert step output: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit result", "resultId", result.ID, "error", err)
		return fmt.Errorf("failed to commit result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetResult(ctx context.Context, resultID uuid.UUID) (*domain.Result, error) {
	return r.getOne(ctx, `SELECT id, submission_id, created_at FROM results WHERE id = $1`, resultID)
}

func (r *ResultRepository) GetLatestResult(ctx context.Context, submissionID uuid.UUID) (*domain.Result, error) {
	query := `
		SELECT id, submission_id, created_at
		FROM results
		WHERE submission_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, submissionID)
}

func (r *ResultRepository) getOne(ctx context.Context, query string, arg uuid.UUID) (*domain.Result, error) {
	var result domain.Result
	if err := r.db.GetContext(ctx, &result, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get result", "id", arg, "error", err)
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if err := r.loadTree(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResults returns every result of the submission, newest first
func (r *ResultRepository) ListResults(ctx context.Context, submissionID uuid.UUID) ([]*domain.Result, error) {
	query := `
		SELECT id, submission_id, created_at
		FROM results
		WHERE submission_id = $1
		ORDER BY created_at DESC
	`
	var results []*domain.Result
	if err := r.db.SelectContext(ctx, &results, query, submissionID); err != nil {
		r.logger.Error("Failed to list results", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	for _, result := range results {
		if err := r.loadTree(ctx, result); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (r *ResultRepository) loadTree(ctx context.Context, result *domain.Result) error {
	var levels []*domain.LevelOutput
	err := r.db.SelectContext(ctx, &levels,
		`SELECT id, result_id, number, name, container FROM level_outputs WHERE result_id = $1 ORDER BY number`,
		result.ID)
	if err != nil {
		return fmt.Errorf("failed to get level outputs: %w", err)
	}

	query := `
		SELECT
			s.id, s.level_output_id, s.kind, s.name, s.number, s.weight, s.hidden, s.command,
			s.timeout_ms, s.expected_output, s.case_insensitive, s.strip_whitespace,
			s.stdout, s.stderr, s.actual_output, s.timed_out, s.outcome
		FROM step_outputs s
		JOIN level_outputs l ON l.id = s.level_output_id
		WHERE l.result_id = $1
		ORDER BY s.number
	`
	var rows []stepOutputRow
	if err := r.db.SelectContext(ctx, &rows, query, result.ID); err != nil {
		return fmt.Errorf("failed to get step outputs: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.LevelOutput, len(levels))
	for _, l := range levels {
		byID[l.ID] = l
	}
	for _, row := range rows {
		if level, ok := byID[row.LevelOutputID]; ok {
			level.Steps = append(level.Steps, row.toDomain())
		}
	}
	result.Levels = levels
	result.SortLevels()
	return nil
}

// SaveStepOutcome writes the outcome fields of a step output. The definitional
// columns are never touched after creation.
func (r *ResultRepository) SaveStepOutcome(ctx context.Context, step *domain.StepOutput) error {
	query := `
		UPDATE step_outputs
		SET stdout = $2, stderr = $3, actual_output = $4, timed_out = $5, outcome = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		step.ID, step.Stdout, step.Stderr, step.ActualOutput, step.TimedOut, string(outcomeOf(step)))
	if err != nil {
		r.logger.Error("Failed to save step outcome", "stepOutputId", step.ID, "error", err)
		return fmt.Errorf("failed to save step outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save step outcome: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("step output %s not found", step.ID)
	}
	return nil
}

func outcomeOf(step *domain.StepOutput) domain.Outcome {
	if step.Outcome == "" {
		return domain.OutcomePending
	}
	return step.Outcome
}

package rosterrepository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var _ secondary.RosterRepository = (*RosterRepository)(nil)

type RosterRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

func NewRosterRepository(db *sqlx.DB, logger primary.Logger) *RosterRepository {
	return &RosterRepository{
		db:     db,
		logger: logger,
	}
}

func (r *RosterRepository) IsInstructor(ctx context.Context, userID, classID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM class_members
			WHERE class_id = $1 AND user_id = $2 AND role = $3
		)
	`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, classID, userID, string(domain.RoleInstructor)); err != nil {
		r.logger.Error("Failed to check roster", "classId", classID, "userId", userID, "error", err)
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	return ok, nil
}

package userrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var _ secondary.UserPort = &userRepo{}

type userRepo struct {
	db     *sqlx.DB
	logger primary.Logger
}

func New(db *sqlx.DB, logger primary.Logger) secondary.UserPort {
	return &userRepo{
		db:     db,
		logger: logger,
	}
}

func (u userRepo) Create(ctx context.Context, user *domain.Users) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.AuthProvider == "" {
		user.AuthProvider = string(domain.ProviderLocal)
	}
	query := `
		INSERT INTO users (id, user_name, password_hash, email, auth_provider)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := u.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.PasswordHash, user.Email, user.AuthProvider,
	)
	if err != nil {
		u.logger.Error("Failed to create user", "userName", user.UserName, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u userRepo) GetByUserName(ctx context.Context, userName string) (*domain.Users, error) {
	query := `
		SELECT id, user_name, password_hash, email, auth_provider
		FROM users
		WHERE user_name = $1
	`
	var user domain.Users
	err := u.db.GetContext(ctx, &user, query, userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

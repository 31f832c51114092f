package userrepository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"

	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/domain"
)

func newRepo(t *testing.T) (*userRepo, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mockDB.Close() })
	repo := New(sqlx.NewDb(mockDB, "postgres"), logging.NewZapLoggerFrom(zaptest.NewLogger(t))).(*userRepo)
	return repo, mock
}

func TestCreateAssignsIDAndProvider(t *testing.T) {
	repo, mock := newRepo(t)
	hash := "hash"
	user := &domain.Users{UserName: "alice", PasswordHash: &hash}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "alice", "hash", nil, "local").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == uuid.Nil {
		t.Error("expected generated ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetByUserName(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()
	cols := []string{"id", "user_name", "password_hash", "email", "auth_provider"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), "alice", "hash", nil, "local"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(cols))

	user, err := repo.GetByUserName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUserName() error = %v", err)
	}
	if user.ID != id || user.PasswordHash == nil || *user.PasswordHash != "hash" || user.Email != nil {
		t.Errorf("unexpected user %+v", user)
	}

	user, err = repo.GetByUserName(context.Background(), "nobody")
	if err != nil || user != nil {
		t.Errorf("missing user: got %+v, %v", user, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

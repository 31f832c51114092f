package auth

import (
	"context"

	"gitlab.com/codemark.net/internal/domain"
)

type IAuthService interface {
	ProviderName() domain.Provider
	Login(ctx context.Context, users *domain.Users) (string, error)
}

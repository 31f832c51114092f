package primary

import (
	"context"

	"gitlab.com/codemark.net/internal/domain"
)

type JWTService interface {
	GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error)
	VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error)
	// Authenticate verifies the token signature and expiry and returns its payload
	Authenticate(ctx context.Context, token string) (domain.AuthPayload, error)
	DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error)
	EncryptPassword(ctx context.Context, password string) (string, error)
	VerifyPassword(ctx context.Context, passwordHash string, pwd string) (bool, error)
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

var _ IAuthService = &localAuthService{}

type localAuthService struct {
	userPort    secondary.UserPort
	jwtProvider primary.JWTService
	logger      primary.Logger
}

func NewLocalAuthService(
	userPort secondary.UserPort,
	jwtProvider primary.JWTService,
	logger primary.Logger,
) IAuthService {
	return &localAuthService{
		userPort:    userPort,
		jwtProvider: jwtProvider,
		logger:      logger,
	}
}

func (g localAuthService) ProviderName() domain.Provider {
	return domain.ProviderLocal
}

func (g localAuthService) Login(ctx context.Context, users *domain.Users) (string, error) {
	if users.PasswordHash == nil {
		return "", errs.InvalidCredentials
	}
	usr, err := g.userPort.GetByUserName(ctx, users.UserName)
	if err != nil {
		g.logger.Error("Failed to get user", "username", users.UserName, "error", err)
		return "", errs.InternalError
	}
	if usr == nil || usr.PasswordHash == nil {
		return "", errs.InvalidCredentials
	}
	valid, err := g.jwtProvider.VerifyPassword(ctx, *usr.PasswordHash, *users.PasswordHash)
	if err != nil || !valid {
		return "", errs.InvalidCredentials
	}

	authPayload := domain.AuthPayload{
		UserID:   usr.ID,
		Username: usr.UserName,
	}
	var buf bytes.Buffer

	err = json.NewEncoder(&buf).Encode(authPayload)
	if err != nil {
		return "", errs.InternalError
	}
	var payload map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &payload)
	if err != nil {
		g.logger.Error("Failed to unmarshal auth payload", "error", err)
		return "", errs.InternalError
	}
	token, err := g.jwtProvider.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, payload)
	if err != nil {
		return "", errs.GeneratingToken
	}
	return token, nil
}

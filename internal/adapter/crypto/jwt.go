package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/codemark.net/internal/config"
	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/domain"
)

var _ primary.JWTService = (*JWTServiceImpl)(nil)

var (
	ErrInvalidToken = fmt.Errorf("invalid token")
)

type JWTServiceImpl struct {
	HMACSecretKey string
	TokenTTL      time.Duration
}

func NewJWTService(jwtConfig *config.JwtConfig) primary.JWTService {
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		TokenTTL:      jwtConfig.TokenTTL,
	}
}

func (J JWTServiceImpl) GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return "", fmt.Errorf("unsupported signing method: %s", method)
	}

	if _, exists := claims["exp"]; !exists {
		ttl := J.TokenTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		claims["exp"] = time.Now().Add(ttl).Unix()
	}

	tok := jwt.NewWithClaims(signingMethod, jwt.MapClaims(claims))
	return tok.SignedString([]byte(J.HMACSecretKey))
}

func (J JWTServiceImpl) parseHMAC(token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(J.HMACSecretKey), nil
	})
}

func (J JWTServiceImpl) VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return false, fmt.Errorf("unsupported signing method: %s", method)
	}

	parsedToken, err := J.parseHMAC(token)
	if err != nil {
		return false, err
	}
	if parsedToken.Method.Alg() != signingMethod.Alg() {
		return false, ErrInvalidToken
	}

	return parsedToken.Valid, nil
}

func (J JWTServiceImpl) Authenticate(ctx context.Context, token string) (domain.AuthPayload, error) {
	parsedToken, err := J.parseHMAC(token)
	if err != nil {
		return domain.AuthPayload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsedToken.Valid {
		return domain.AuthPayload{}, ErrInvalidToken
	}
	return J.DecodeTokenPayload(ctx, token)
}

func (JWTServiceImpl) VerifyPassword(ctx context.Context, passwordHash string, pwd string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pwd))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (J JWTServiceImpl) EncryptPassword(ctx context.Context, password string) (string, error) {
	pwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func decodeSeg(signature string) (string, error) {
	sig, err := jwt.NewParser().DecodeSegment(signature)
	if err != nil {
		return "", err
	}
	return string(sig), nil
}

// DecodeTokenPayload reads the payload without verifying the signature
func (J JWTServiceImpl) DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return domain.AuthPayload{}, fmt.Errorf("invalid token format")
	}

	payloadData, err := decodeSeg(parts[1])
	if err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to decode token payload: %w", err)
	}

	var authPayload domain.AuthPayload
	if err := json.Unmarshal([]byte(payloadData), &authPayload); err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to parse AuthPayload: %w", err)
	}

	return authPayload, nil
}

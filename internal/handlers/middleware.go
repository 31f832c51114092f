package handlers

import (
	"context"
	"net/http"
	"strings"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/domain"
)

type viewerKey struct{}

type MiddlewareProvider struct {
	jwtService primary.JWTService
	logger     primary.Logger
}

func New(jwtService primary.JWTService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		jwtService: jwtService,
		logger:     logger,
	}
}

// TokenFromRequest reads a bearer token from the Authorization header, falling
// back to the token query parameter since browsers cannot set headers on websockets
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := TokenFromRequest(r)
		if tokenString == "" {
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		viewer, err := m.jwtService.Authenticate(r.Context(), tokenString)
		if err != nil {
			m.logger.Debug("Rejected token", "path", r.URL.Path, "error", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

func WithViewer(ctx context.Context, viewer domain.AuthPayload) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}

// ViewerFromContext returns the authenticated viewer set by JWTMiddleware
func ViewerFromContext(ctx context.Context) (domain.AuthPayload, bool) {
	viewer, ok := ctx.Value(viewerKey{}).(domain.AuthPayload)
	return viewer, ok
}

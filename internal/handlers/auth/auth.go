package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/services/auth"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/handlers/response"
	"gitlab.com/codemark.net/internal/static/errs"
)

type ServiceDependencies struct {
	LocalAuthService auth.IAuthService
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Handler struct {
	providerHandler map[domain.Provider]auth.IAuthService
	logger          primary.Logger
}

func NewHandler(logger primary.Logger) *Handler {
	return &Handler{
		providerHandler: make(map[domain.Provider]auth.IAuthService),
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router, svcDep *ServiceDependencies) {
	h.providerHandler[domain.ProviderLocal] = svcDep.LocalAuthService
	router.HandleFunc("/auth/login", h.LoginHandler).Methods("POST")
}

// LoginHandler exchanges a username and password for an access token
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		response.WriteError(w, response.ErrorMessage{
			Message:    "Invalid request",
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	tokenStr, err := h.providerHandler[domain.ProviderLocal].Login(r.Context(), &domain.Users{
		UserName:     req.Username,
		PasswordHash: &req.Password,
		AuthProvider: string(domain.ProviderLocal),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errs.InvalidCredentials) {
			status = http.StatusUnauthorized
		} else {
			h.logger.Error("Failed to log in", "username", req.Username, "error", err)
		}
		response.WriteError(w, response.ErrorMessage{
			Message:    err.Error(),
			StatusCode: status,
		})
		return
	}

	response.WriteSuccess(w, domain.LoginResponse{Token: tokenStr})
}

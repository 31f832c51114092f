package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/codemark.net/internal/static/errs"
)

func ResponseWithJson(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func ResponseError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// StatusFor maps service errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.Unauthorized), errors.Is(err, errs.InvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrRunNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResponseServiceError writes err with the status it maps to
func ResponseServiceError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	message := http.StatusText(code)
	if code == http.StatusServiceUnavailable {
		message = errs.ErrRunNotStarted.Error()
	}
	ResponseError(w, message, code)
}

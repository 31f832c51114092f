package domain

import "github.com/google/uuid"

type Provider string

const (
	ProviderLocal Provider = "local"
)

// AuthPayload is the identity carried by an access token
type AuthPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

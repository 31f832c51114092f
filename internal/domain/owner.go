package domain

import "github.com/google/uuid"

type Users struct {
	ID           uuid.UUID `db:"id"`
	UserName     string    `db:"user_name"`
	PasswordHash *string   `db:"password_hash"`
	Email        *string   `db:"email"`
	AuthProvider string    `db:"auth_provider"`
}

// Role of a user inside a class roster
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

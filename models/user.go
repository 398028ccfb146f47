package models

import "time"

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	ID           int    `json:"id" db:"id"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Username     string `json:"username" db:"username"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`

	EmailConfirmed         bool       `json:"email_confirmed" db:"email_confirmed"`
	EmailConfirmationToken *string    `json:"-" db:"email_confirmation_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

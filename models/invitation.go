package models

import "time"

type Invitation struct {
	ID        int       `json:"id" db:"id"`
	PoolID    int       `json:"pool_id" db:"pool_id"`
	Email     string    `json:"email" db:"email"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

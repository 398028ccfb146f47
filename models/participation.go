package models

import "time"

// PaymentStatus mirrors the payment_status ENUM in the database.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Participation is a user's membership in a pool. Points is a cached
// aggregate over the user's finished-match bets in the pool.
type Participation struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	PoolID        int           `json:"pool_id" db:"pool_id"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	Points        int           `json:"points" db:"points"`
	JoinedAt      time.Time     `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// LeaderboardEntry is a ranked participation row as served to clients.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   int       `json:"user_id"`
	Username string    `json:"username"`
	Points   int       `json:"points"`
	JoinedAt time.Time `json:"joined_at"`
}

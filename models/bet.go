package models

import "time"

// Bet is one user's score prediction for one match in one pool.
// Unique per (user, match, pool). PointsEarned stays 0 until the match is
// finished and is recomputed whenever the final score changes.
type Bet struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	MatchID       int       `json:"match_id" db:"match_id"`
	PoolID        int       `json:"pool_id" db:"pool_id"`
	PredictedHome int       `json:"predicted_home" db:"predicted_home"`
	PredictedAway int       `json:"predicted_away" db:"predicted_away"`
	PointsEarned  int       `json:"points_earned" db:"points_earned"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Match *Match `json:"match,omitempty" db:"-"`
}

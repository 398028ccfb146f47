// Package events publishes domain events consumed by the notification
// system. Payloads are JSON on Kafka topics, keyed by pool slug so all
// events of one pool stay ordered within a partition.
package events

import "time"

const (
	TopicResultAvailable   = "pool.result-available"
	TopicBetScored         = "pool.bet-scored"
	TopicInvitationCreated = "pool.invitation-created"
)

type ResultAvailable struct {
	PoolID    int       `json:"pool_id"`
	PoolSlug  string    `json:"pool_slug"`
	MatchID   int       `json:"match_id"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Corrected bool      `json:"corrected"`
	At        time.Time `json:"at"`
}

type BetScored struct {
	PoolID       int       `json:"pool_id"`
	PoolSlug     string    `json:"pool_slug"`
	MatchID      int       `json:"match_id"`
	BetID        int       `json:"bet_id"`
	UserID       int       `json:"user_id"`
	PointsEarned int       `json:"points_earned"`
	At           time.Time `json:"at"`
}

type InvitationCreated struct {
	PoolID   int       `json:"pool_id"`
	PoolSlug string    `json:"pool_slug"`
	Email    string    `json:"email"`
	At       time.Time `json:"at"`
}

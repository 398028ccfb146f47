package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caduhr/bolao-system/scoring"
)

// PoolStatus mirrors the pool_status ENUM in the database.
type PoolStatus string

const (
	PoolStatusOpen     PoolStatus = "open"
	PoolStatusLocked   PoolStatus = "locked"
	PoolStatusFinished PoolStatus = "finished"
)

type PoolVisibility string

const (
	VisibilityPublic  PoolVisibility = "public"
	VisibilityPrivate PoolVisibility = "private"
)

// Pool is a betting pool ("bolão") scoped to one competition.
type Pool struct {
	ID            int             `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Description   *string         `json:"description,omitempty" db:"description"`
	OwnerID       int             `json:"owner_id" db:"owner_id"`
	CompetitionID int             `json:"competition_id" db:"competition_id"`
	EntryFee      decimal.Decimal `json:"entry_fee" db:"entry_fee"`
	Visibility    PoolVisibility  `json:"visibility" db:"visibility"`
	Status        PoolStatus      `json:"status" db:"status"`

	// 0 means unlimited.
	MaxParticipants int `json:"max_participants" db:"max_participants"`

	BettingDeadline *time.Time `json:"betting_deadline,omitempty" db:"betting_deadline"`

	// Point schedule applied to every bet in this pool.
	ExactScorePoints        int `json:"exact_score_points" db:"exact_score_points"`
	CorrectDifferencePoints int `json:"correct_difference_points" db:"correct_difference_points"`
	CorrectResultPoints     int `json:"correct_result_points" db:"correct_result_points"`
	WrongPredictionPoints   int `json:"wrong_prediction_points" db:"wrong_prediction_points"`

	InvitationCode uuid.UUID `json:"-" db:"invitation_code"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Owner       *User        `json:"owner,omitempty" db:"-"`
	Competition *Competition `json:"competition,omitempty" db:"-"`
}

func (p *Pool) Rubric() scoring.Rubric {
	return scoring.Rubric{
		ExactScore:        p.ExactScorePoints,
		CorrectDifference: p.CorrectDifferencePoints,
		CorrectResult:     p.CorrectResultPoints,
		WrongPrediction:   p.WrongPredictionPoints,
	}
}

// IsOpenForBetting reports whether new bets are accepted at the given time.
// The per-match start time is checked separately by the bet service.
func (p *Pool) IsOpenForBetting(now time.Time) bool {
	if p.Status != PoolStatusOpen {
		return false
	}
	return p.BettingDeadline == nil || p.BettingDeadline.After(now)
}

// TotalPot is the prize pool given the current participant count.
func (p *Pool) TotalPot(participants int) decimal.Decimal {
	return p.EntryFee.Mul(decimal.NewFromInt(int64(participants)))
}

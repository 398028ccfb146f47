package models

import "time"

// Match is a scheduled fixture inside a pool.
type Match struct {
	ID            int        `json:"id" db:"id"`
	CompetitionID int        `json:"competition_id" db:"competition_id"`
	PoolID        int        `json:"pool_id" db:"pool_id"`
	HomeTeamID    int        `json:"home_team_id" db:"home_team_id"`
	AwayTeamID    int        `json:"away_team_id" db:"away_team_id"`
	StartTime     time.Time  `json:"start_time" db:"start_time"`
	HomeScore     *int       `json:"home_score,omitempty" db:"home_score"`
	AwayScore     *int       `json:"away_score,omitempty" db:"away_score"`
	Finished      bool       `json:"finished" db:"finished"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`

	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}

func (m *Match) HasStarted(now time.Time) bool {
	return !m.StartTime.After(now)
}

// HasFullResult reports whether both final scores are present.
// A match must never be marked finished without them.
func (m *Match) HasFullResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

package models

import "time"

type Team struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	Name          string    `json:"name" db:"name"`
	ShortName     *string   `json:"short_name,omitempty" db:"short_name"`
	Code          *string   `json:"code,omitempty" db:"code"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

package models

// Sport is a sport category (football, basketball, ...).
type Sport struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
	Icon string `json:"icon,omitempty" db:"icon"`
}

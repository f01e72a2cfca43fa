package models

import "time"

type Team struct {
	ID        string    `json:"id" db:"id"`
	Nombre    string    `json:"nombre" db:"nombre"`
	Shortname *string   `json:"shortname,omitempty" db:"shortname"`
	Category  int       `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	MemberCount int       `json:"member_count,omitempty" db:"-"`
	Members     []Profile `json:"members,omitempty" db:"-"`
}

// CategoryLimit returns the maximum squad size for a birth-year category.
// The oldest cohort plays with reduced squads.
func CategoryLimit(category int) int {
	if category == 2010 {
		return 8
	}
	return 14
}

// ValidCategory reports whether the birth year is one the league runs.
func ValidCategory(category int) bool {
	return category >= 2010 && category <= 2020
}

package models

import "time"

// CohortMember is an account belonging to a cohort.
type CohortMember struct {
	ID         int64      `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Email      string     `db:"email" json:"email"`
	LastAccess *time.Time `db:"last_access" json:"last_access,omitempty"`
	Suspended  bool       `db:"suspended" json:"suspended"`
}

// FullName renders "Last First" the way rosters are sorted.
func (m CohortMember) FullName() string {
	switch {
	case m.LastName == "":
		return m.FirstName
	case m.FirstName == "":
		return m.LastName
	default:
		return m.LastName + " " + m.FirstName
	}
}

package models

import "strings"

// Context levels used when resolving a cohort's owning context.
const (
	ContextLevelSystem   = 10
	ContextLevelCategory = 40

	// SystemContextID is the id of the site-wide context.
	SystemContextID int64 = 1
)

// EmptinessMode selects which cohorts a listing treats as empty.
type EmptinessMode int

const (
	// EmptinessAll applies no emptiness filter.
	EmptinessAll EmptinessMode = 0
	// EmptinessNoMembers keeps cohorts without any membership, suspended accounts included.
	EmptinessNoMembers EmptinessMode = 1
	// EmptinessNoActiveMembers keeps cohorts without a membership of a non-suspended account.
	EmptinessNoActiveMembers EmptinessMode = 2
)

// Normalize coerces unknown modes to EmptinessAll.
func (m EmptinessMode) Normalize() EmptinessMode {
	switch m {
	case EmptinessNoMembers, EmptinessNoActiveMembers:
		return m
	default:
		return EmptinessAll
	}
}

// MemberCountMode restricts member counts by account suspension.
type MemberCountMode int

const (
	MemberCountAll MemberCountMode = iota
	MemberCountActive
	MemberCountSuspended
)

// ParseMemberCountMode maps query values to a mode; unknown values count everyone.
func ParseMemberCountMode(raw string) MemberCountMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return MemberCountActive
	case "suspended":
		return MemberCountSuspended
	default:
		return MemberCountAll
	}
}

func (m MemberCountMode) String() string {
	switch m {
	case MemberCountActive:
		return "active"
	case MemberCountSuspended:
		return "suspended"
	default:
		return "all"
	}
}

// Cohort is a site or category level group of accounts.
type Cohort struct {
	ID          int64  `db:"id" json:"id"`
	ContextID   int64  `db:"context_id" json:"context_id"`
	Name        string `db:"name" json:"name"`
	IDNumber    string `db:"id_number" json:"id_number"`
	Description string `db:"description" json:"description"`
	Visible     bool   `db:"visible" json:"visible"`
	// Component is set when another plugin owns the cohort, e.g. a sync job.
	Component string `db:"component" json:"component"`
}

// Managed reports whether the cohort lifecycle belongs to another component.
func (c Cohort) Managed() bool {
	return c.Component != ""
}

// CohortRow is a cohort joined with its owning context for listings.
type CohortRow struct {
	Cohort
	ContextLevel int    `db:"context_level" json:"context_level"`
	CategoryName string `db:"category_name" json:"category_name"`
}

// ContextName resolves a display name for the owning context.
func (r CohortRow) ContextName() string {
	if r.ContextLevel == ContextLevelCategory && r.CategoryName != "" {
		return r.CategoryName
	}
	return "System"
}

// CohortFilter defines listing criteria. Page is zero based.
type CohortFilter struct {
	Search             string
	Emptiness          EmptinessMode
	ExcludedContextIDs []int64
	Page               int
	PageSize           int
}

// CohortPage is one page of a cohort listing.
type CohortPage struct {
	// Total counts cohorts matching every criterion including search.
	Total int
	// AllTotal counts cohorts matching exclusion and emptiness criteria only.
	AllTotal int
	Rows     []CohortRow
}

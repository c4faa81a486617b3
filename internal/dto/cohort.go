package dto

import (
	"time"

	"github.com/noah-isme/cohort-admin-api/internal/models"
)

// ListCohortsRequest captures listing parameters before defaults are applied.
type ListCohortsRequest struct {
	Page     int    `form:"page" validate:"gte=0"`
	PageSize int    `form:"limit" validate:"gte=0"`
	Search   string `form:"search"`
	Empty    int    `form:"empty"`
}

// PageRequest captures pagination for member and course sub-listings.
type PageRequest struct {
	Page     int `form:"page" validate:"gte=0"`
	PageSize int `form:"limit" validate:"gte=0"`
}

// CohortItem is one row of the cohort listing.
type CohortItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	IDNumber     string `json:"id_number,omitempty"`
	ContextID    int64  `json:"context_id"`
	ContextName  string `json:"context_name"`
	CategoryLink bool   `json:"category_link"`
	Visible      bool   `json:"visible"`
	Component    string `json:"component,omitempty"`
	MemberCount  int    `json:"member_count"`
	CourseCount  int    `json:"course_count"`
	Editable     bool   `json:"editable"`
}

// CohortList is the listing result with both totals.
type CohortList struct {
	Items      []CohortItem
	Pagination models.Pagination
	AllTotal   int
	CanManage  bool
	Emptiness  models.EmptinessMode
}

// CohortCounts reports member and course counts for one cohort.
type CohortCounts struct {
	CohortID    int64  `json:"cohort_id"`
	Mode        string `json:"mode"`
	MemberCount int    `json:"member_count"`
	CourseCount int    `json:"course_count"`
}

// MemberItem is one row of a cohort roster.
type MemberItem struct {
	ID            int64      `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	LastAccess    *time.Time `json:"last_access,omitempty"`
	LastAccessAgo string     `json:"last_access_ago"`
	Suspended     bool       `json:"suspended"`
}

// MemberList is a page of cohort members.
type MemberList struct {
	Cohort     models.Cohort
	Items      []MemberItem
	Pagination models.Pagination
	CanManage  bool
}

// CourseItem is one course a cohort is enrolled into.
type CourseItem struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Visible  bool   `json:"visible"`
}

// CourseList is a page of cohort courses.
type CourseList struct {
	Cohort     models.Cohort
	Items      []CourseItem
	Pagination models.Pagination
	CanManage  bool
}

// DeleteRequest carries the cohorts selected for deletion.
type DeleteRequest struct {
	IDs []int64 `json:"ids" validate:"max=500"`
}

// ConfirmDeleteRequest resubmits the selection with the issued token.
type ConfirmDeleteRequest struct {
	IDs   []int64 `json:"ids" validate:"required,max=500"`
	Token string  `json:"token" validate:"required"`
}

// DeleteSummaryItem describes one cohort in the confirmation summary.
type DeleteSummaryItem struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	MemberCount      int    `json:"member_count"`
	SuspendedMembers int    `json:"suspended_members"`
}

// DeleteConfirmation is returned by the request phase.
type DeleteConfirmation struct {
	NothingSelected bool                `json:"nothing_selected"`
	Message         string              `json:"message"`
	IDs             []int64             `json:"ids,omitempty"`
	Items           []DeleteSummaryItem `json:"items,omitempty"`
	Token           string              `json:"token,omitempty"`
	ExpiresAt       *time.Time          `json:"expires_at,omitempty"`
}

// DeleteResult is returned by the confirm phase.
type DeleteResult struct {
	DeletedCount int     `json:"deleted_count"`
	DeletedIDs   []int64 `json:"deleted_ids"`
	SkippedIDs   []int64 `json:"skipped_ids"`
	FirstError   string  `json:"first_error,omitempty"`
	Message      string  `json:"message"`
}

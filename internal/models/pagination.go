package models

// Pagination contains pagination metadata returned in list responses. Page is zero based.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package models

import "time"

// Timestamps provides common time tracking fields
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Page is one batch of a paginated list response.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// ListParams are the pagination and ordering query parameters.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

// Sort directions
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ValidOrder reports whether order is a sort direction the API accepts.
func ValidOrder(order string) bool {
	return order == OrderAsc || order == OrderDesc
}

// ErrorBody is the structured body the backend sends with non-2xx responses.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// strPtr is shared by the patch helpers.
func strPtr(s string) *string { return &s }

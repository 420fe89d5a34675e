package models

// User is the authenticated account as returned by the login endpoint.
type User struct {
	ID           Ref    `json:"id,omitempty"`
	Email        string `json:"email"`
	Role         Ref    `json:"role"`
	Organization Ref    `json:"organization"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// RosterFilter captures the client-side search and paging applied to list screens.
type RosterFilter struct {
	Search   string
	Page     int
	PageSize int
}

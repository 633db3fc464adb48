package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination derives the page count for a list response.
func NewPagination(page, size, total int) *Pagination {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}

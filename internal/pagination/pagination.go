// Package pagination provides shared page/limit parsing for list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

// Default pagination values
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 500
)

// Params represents pagination query parameters
type Params struct {
	Page  int `json:"page"`  // Current page number (1-based)
	Limit int `json:"limit"` // Number of items per page
}

// Meta contains pagination metadata for responses
type Meta struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// ParseParams extracts and validates pagination parameters from HTTP request
func ParseParams(r *http.Request) Params {
	page := DefaultPage
	limit := DefaultLimit

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// BuildMeta computes pagination metadata for a total record count.
func BuildMeta(params Params, totalRecords int) Meta {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (totalRecords + params.Limit - 1) / params.Limit
	}
	return Meta{
		CurrentPage:  params.Page,
		PerPage:      params.Limit,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		HasNext:      params.Page < totalPages,
		HasPrevious:  params.Page > 1,
	}
}

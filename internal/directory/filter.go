package directory

import "strings"

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Filter narrows and pages a listing. Role and Search combine with AND.
type Filter struct {
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Role    *Role   `json:"role,omitempty"`
	Search  *string `json:"search,omitempty"`
}

// NewFilter clamps pagination into range instead of failing: page below 1
// becomes 1, per-page below 1 becomes the default, above the cap becomes
// the cap. An empty search is treated as absent.
func NewFilter(page, perPage int, role *Role, search *string) Filter {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if search != nil {
		trimmed := strings.TrimSpace(*search)
		if trimmed == "" {
			search = nil
		} else {
			search = &trimmed
		}
	}
	return Filter{Page: page, PerPage: perPage, Role: role, Search: search}
}

// DefaultFilter returns the unfiltered first page.
func DefaultFilter() Filter {
	return NewFilter(DefaultPage, DefaultPerPage, nil, nil)
}

// Offset is the number of rows to skip for the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

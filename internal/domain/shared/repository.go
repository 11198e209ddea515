package shared

import "strings"

// Filter pages and orders list queries. The zero Filter is unpaged, which is
// what the agent's refresh uses to pull whole collections.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Paged reports whether a page window applies
func (f Filter) Paged() bool {
	return f.PageSize > 0
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Ascending reports whether ascending order was asked for; lists default to newest first
func (f Filter) Ascending() bool {
	return strings.EqualFold(f.OrderDir, "asc")
}

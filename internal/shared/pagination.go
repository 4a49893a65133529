package shared

import "math"

// DefaultPerPage applies when callers do not ask for a page size.
const DefaultPerPage = 20

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 200

// maxOffset keeps (page-1)*perPage inside a Postgres integer OFFSET.
const maxOffset = math.MaxInt32

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. Page numbers past the largest
// representable offset are clamped.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}
	if lastPage := maxOffset/perPage + 1; page > lastPage {
		page = lastPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is the canonical list envelope: the current page of results plus the
// total number of matching records.
type Page[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

// NewPage never returns a nil Results slice so the envelope encodes as [].
func NewPage[T any](results []T, count int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Results: results, Count: count}
}

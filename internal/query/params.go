// Package query implements the list/search/filter contract shared by every
// collection endpoint: case-insensitive substring search on designated fields,
// exact-match filters, and page/per_page pagination.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/console/internal/shared"
)

// Filter keys accepted by the contract.
const (
	FilterStatus     = "status"
	FilterDepartment = "department"
	FilterCategory   = "category"
)

// Params describes one list request.
type Params struct {
	Search     string
	Status     string
	Department string
	Category   string
	Page       int
	PerPage    int
}

// ParseParams reads the contract from URL query values. Malformed page numbers
// fall back to the defaults.
func ParseParams(values url.Values) Params {
	p := Params{
		Search:     strings.TrimSpace(values.Get("search")),
		Status:     strings.TrimSpace(values.Get(FilterStatus)),
		Department: strings.TrimSpace(values.Get(FilterDepartment)),
		Category:   strings.TrimSpace(values.Get(FilterCategory)),
	}
	p.Page, _ = strconv.Atoi(values.Get("page"))
	p.PerPage, _ = strconv.Atoi(values.Get("per_page"))
	return p.Normalize()
}

// Normalize applies pagination defaults and caps.
func (p Params) Normalize() Params {
	pg := shared.NewPagination(p.Page, p.PerPage, 0)
	p.Page, p.PerPage = pg.Page, pg.PerPage
	return p
}

// Offset returns the number of records to skip.
func (p Params) Offset() int {
	return shared.NewPagination(p.Page, p.PerPage, 0).Offset()
}

// Limit returns the page size.
func (p Params) Limit() int {
	return shared.NewPagination(p.Page, p.PerPage, 0).PerPage
}

// Filters returns the non-empty exact-match filters keyed by name.
func (p Params) Filters() map[string]string {
	out := make(map[string]string, 3)
	if p.Status != "" {
		out[FilterStatus] = p.Status
	}
	if p.Department != "" {
		out[FilterDepartment] = p.Department
	}
	if p.Category != "" {
		out[FilterCategory] = p.Category
	}
	return out
}

// Values encodes the params back into URL query values.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.Filters() {
		v.Set(k, val)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return v
}

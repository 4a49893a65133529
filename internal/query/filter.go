package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/console/internal/shared"
)

// Indexed is implemented by entities that can be listed through the contract.
type Indexed interface {
	// SearchFields returns the values free-text search matches against.
	SearchFields() []string
	// FilterField returns the value of an exact-match filter key, or false
	// when the entity does not support that filter.
	FilterField(key string) (string, bool)
}

// Match reports whether item satisfies the search term and filters of p.
func Match[T Indexed](item T, p Params) bool {
	if p.Search != "" {
		folder := cases.Fold()
		term := folder.String(p.Search)
		found := false
		for _, field := range item.SearchFields() {
			if strings.Contains(folder.String(field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for key, want := range p.Filters() {
		got, ok := item.FilterField(key)
		if !ok {
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// Apply filters items in order and slices the requested page. Count is the
// number of matches before pagination.
func Apply[T Indexed](items []T, p Params) shared.Page[T] {
	p = p.Normalize()
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if Match(item, p) {
			matched = append(matched, item)
		}
	}
	start := max(p.Offset(), 0)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	return shared.NewPage(matched[start:end], len(matched))
}

package query

import (
	"fmt"
	"strings"
)

// Spec maps the contract onto SQL columns for one entity.
type Spec struct {
	// SearchColumns are matched with ILIKE '%term%'.
	SearchColumns []string
	// FilterColumns maps filter keys (status, department, category) to columns.
	// Keys without a column are ignored for that entity.
	FilterColumns map[string]string
}

var filterOrder = []string{FilterStatus, FilterDepartment, FilterCategory}

// Where builds the WHERE clause for p. Placeholders continue after the
// supplied args, which are returned extended.
func (s Spec) Where(p Params, args []any) (string, []any) {
	var conds []string
	if p.Search != "" && len(s.SearchColumns) > 0 {
		args = append(args, "%"+EscapeLike(p.Search)+"%")
		n := len(args)
		ors := make([]string, 0, len(s.SearchColumns))
		for _, col := range s.SearchColumns {
			ors = append(ors, fmt.Sprintf("%s ILIKE $%d", col, n))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	filters := p.Filters()
	for _, key := range filterOrder {
		value, ok := filters[key]
		if !ok {
			continue
		}
		col, ok := s.FilterColumns[key]
		if !ok {
			continue
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Paginate appends LIMIT and OFFSET placeholders.
func Paginate(p Params, args []any) (string, []any) {
	args = append(args, p.Limit(), p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// EscapeLike escapes LIKE wildcards so the term matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

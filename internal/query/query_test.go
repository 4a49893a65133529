package query

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/shared"
)

type person struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Department string `json:"department"`
}

func (p person) SearchFields() []string { return []string{p.Name, p.Title} }

func (p person) FilterField(key string) (string, bool) {
	if key == FilterDepartment {
		return p.Department, true
	}
	return "", false
}

var people = []person{
	{Name: "Ada", Title: "Engineer", Department: "R&D"},
	{Name: "Grace", Title: "Admiral", Department: "Navy"},
	{Name: "Linus", Title: "Kernel Engineer", Department: "R&D"},
	{Name: "Margaret", Title: "Director", Department: "R&D"},
}

func TestParseParams(t *testing.T) {
	p := ParseParams(url.Values{"search": {" eng "}, "status": {"active"}, "page": {"x"}, "per_page": {"5"}})
	assert.Equal(t, "eng", p.Search)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 5, p.PerPage)
	assert.Equal(t, map[string]string{"status": "active"}, p.Filters())
	assert.Equal(t, "eng", p.Values().Get("search"))
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	page := Apply(people, Params{Search: "ENGINEER"})
	require.Equal(t, 2, page.Count)
	assert.Equal(t, "Ada", page.Results[0].Name)
	assert.Equal(t, "Linus", page.Results[1].Name)
}

func TestApplyFiltersAndIgnoresUnsupportedKeys(t *testing.T) {
	page := Apply(people, Params{Department: "R&D", Status: "ignored"})
	assert.Equal(t, 3, page.Count)

	page = Apply(people, Params{Department: "r&d"})
	assert.Equal(t, 0, page.Count)
	assert.NotNil(t, page.Results)
}

func TestApplyPaginates(t *testing.T) {
	page := Apply(people, Params{Page: 2, PerPage: 3})
	assert.Equal(t, 4, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Margaret", page.Results[0].Name)

	page = Apply(people, Params{Page: 9, PerPage: 3})
	assert.Empty(t, page.Results)
	assert.Equal(t, 4, page.Count)
}

func TestHugePageNumberStaysInRange(t *testing.T) {
	p := ParseParams(url.Values{"page": {"9223372036854775807"}})
	assert.GreaterOrEqual(t, p.Offset(), 0)
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)
	assert.Equal(t, 20, p.Limit())

	var page shared.Page[person]
	require.NotPanics(t, func() { page = Apply(people, p) })
	assert.Empty(t, page.Results)
	assert.Equal(t, 4, page.Count)

	_, args := Paginate(ParseParams(url.Values{"page": {"9223372036854775807"}, "per_page": {"1"}}), nil)
	require.Len(t, args, 2)
	assert.Equal(t, math.MaxInt32, args[1])
}

func TestSpecWhere(t *testing.T) {
	spec := Spec{
		SearchColumns: []string{"p.name", "c.name"},
		FilterColumns: map[string]string{FilterStatus: "p.status"},
	}
	where, args := spec.Where(Params{Search: "50%_off", Status: "active", Department: "x"}, []any{int64(9)})
	assert.Equal(t, " WHERE (p.name ILIKE $2 OR c.name ILIKE $2) AND p.status = $3", where)
	assert.Equal(t, []any{int64(9), `%50\%\_off%`, "active"}, args)

	where, args = spec.Where(Params{}, nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	limit, args := Paginate(Params{Page: 3, PerPage: 10}, []any{"a"})
	assert.Equal(t, " LIMIT $2 OFFSET $3", limit)
	assert.Equal(t, []any{"a", 10, 20}, args)
}

func TestDecodeListHandlesBothShapes(t *testing.T) {
	page, err := DecodeList[person]([]byte(`[{"name":"Ada"},{"name":"Grace"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)

	page, err = DecodeList[person]([]byte(`{"results":[{"name":"Ada"}],"count":40}`))
	require.NoError(t, err)
	assert.Equal(t, 40, page.Count)
	assert.Equal(t, "Ada", page.Results[0].Name)

	page, err = DecodeList[person]([]byte(`{"results":[{"name":"Ada"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)

	page, err = DecodeList[person]([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Equal(t, 0, page.Count)

	page, err = DecodeList[person](nil)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)

	_, err = DecodeList[person]([]byte(`"oops"`))
	assert.Error(t, err)
}

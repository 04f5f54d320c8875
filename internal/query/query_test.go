package query_test

import (
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeSort = query.SortSpec{
	Fields: map[string]string{
		"name":      "name",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Default: "updatedAt",
}

func TestNewMeta_Arithmetic(t *testing.T) {
	tests := []struct {
		page, limit, total int
		wantPages          int
		wantNext, wantPrev bool
	}{
		{page: 1, limit: 10, total: 25, wantPages: 3, wantNext: true, wantPrev: false},
		{page: 2, limit: 10, total: 25, wantPages: 3, wantNext: true, wantPrev: true},
		{page: 3, limit: 10, total: 25, wantPages: 3, wantNext: false, wantPrev: true},
		{page: 1, limit: 10, total: 0, wantPages: 0, wantNext: false, wantPrev: false},
		{page: 1, limit: 100, total: 100, wantPages: 1, wantNext: false, wantPrev: false},
		{page: 4, limit: 1, total: 3, wantPages: 3, wantNext: false, wantPrev: true},
	}
	for _, tt := range tests {
		p, err := query.NewPage(tt.page, tt.limit)
		require.NoError(t, err)

		m := query.NewMeta(p, tt.total)
		assert.Equal(t, tt.wantPages, m.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.Equal(t, tt.wantNext, m.HasNext, "page=%d", tt.page)
		assert.Equal(t, tt.wantPrev, m.HasPrev, "page=%d", tt.page)
		assert.Equal(t, tt.total, m.Total)
	}
}

func TestNewPage_RejectsOutOfRange(t *testing.T) {
	for _, tc := range []struct{ page, limit int }{{0, 10}, {-1, 10}, {1, 0}, {1, 101}} {
		_, err := query.NewPage(tc.page, tc.limit)
		assert.ErrorIs(t, err, apperr.ErrValidation, "page=%d limit=%d", tc.page, tc.limit)
	}
}

func TestNewPage_HugePage(t *testing.T) {
	_, err := query.NewPage(math.MaxInt64/10, query.MaxLimit)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	p, err := query.NewPage(query.MaxPage, query.MaxLimit)
	require.NoError(t, err)
	assert.Positive(t, p.Offset())
	assert.Equal(t, (query.MaxPage-1)*query.MaxLimit, p.Offset())
}

func TestPage_Offset(t *testing.T) {
	p, err := query.NewPage(3, 20)
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset())
}

func TestSortSpec_Resolve(t *testing.T) {
	s, err := storeSort.Resolve("name", "asc")
	require.NoError(t, err)
	assert.Equal(t, query.Sort{Column: "name", Desc: false}, s)

	s, err = storeSort.Resolve("bogus", "")
	require.NoError(t, err)
	assert.Equal(t, query.Sort{Column: "updated_at", Desc: true}, s)

	_, err = storeSort.Resolve("name", "sideways")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDay_HalfOpenRange(t *testing.T) {
	d := time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC)
	conds := query.Day("created_at", d)

	require.Len(t, conds, 2)
	assert.Equal(t, query.OpGte, conds[0].Op)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), conds[0].Value)
	assert.Equal(t, query.OpLt, conds[1].Op)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), conds[1].Value)
}

func TestParseDay(t *testing.T) {
	d, err := query.ParseDay("date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = query.ParseDay("date", "29/02/2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParamsFromValues(t *testing.T) {
	p, err := query.ParamsFromValues(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, query.Params{Page: 1, Limit: 10}, p)

	p, err = query.ParamsFromValues(url.Values{"page": {"2"}, "limit": {"50"}, "sortBy": {"name"}, "sortOrder": {"ASC"}})
	require.NoError(t, err)
	assert.Equal(t, query.Params{Page: 2, Limit: 50, SortBy: "name", SortOrder: "ASC"}, p)

	_, err = query.ParamsFromValues(url.Values{"limit": {"ten"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParams_Build(t *testing.T) {
	filters := []query.Cond{query.Contains("name", "cafe")}
	l, err := query.Params{Page: 2, Limit: 5, SortBy: "createdAt"}.Build(storeSort, "", filters)
	require.NoError(t, err)

	assert.Equal(t, query.Page{Number: 2, Limit: 5}, l.Page)
	assert.Equal(t, "created_at", l.Sort.Column)
	assert.True(t, l.Sort.Desc)
	assert.Equal(t, filters, l.Filters)

	_, err = query.Params{Page: 1, Limit: 500}.Build(storeSort, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

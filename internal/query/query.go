// Package query describes a filtered, sorted, paginated read over a
// tenant-scoped collection. It is storage-agnostic: the store package renders
// a List into SQL.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int for any limit up to MaxLimit.
	MaxPage = math.MaxInt32
)

const dayLayout = "2006-01-02"

// Op is a filter comparison.
type Op int

const (
	OpEq Op = iota
	OpContains
	OpGte
	OpLt
)

// Cond is one AND-ed predicate on a column of the resource's own table.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, v any) Cond { return Cond{Column: column, Op: OpEq, Value: v} }

// Contains is a case-insensitive substring match.
func Contains(column, s string) Cond { return Cond{Column: column, Op: OpContains, Value: s} }

func Gte(column string, v any) Cond { return Cond{Column: column, Op: OpGte, Value: v} }

func Lt(column string, v any) Cond { return Cond{Column: column, Op: OpLt, Value: v} }

// Day matches column values in [day 00:00, day+1 00:00) UTC.
func Day(column string, day time.Time) []Cond {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return []Cond{Gte(column, start), Lt(column, start.AddDate(0, 0, 1))}
}

// ParseDay parses a YYYY-MM-DD value.
func ParseDay(field, s string) (time.Time, error) {
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, apperr.InvalidField(field, "%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

// Page is a validated 1-indexed page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage validates bounds. Out-of-range values are rejected, never clamped.
func NewPage(number, limit int) (Page, error) {
	if number < 1 {
		return Page{}, apperr.InvalidField("page", "page must be greater than or equal to 1")
	}
	if limit < 1 || limit > MaxLimit {
		return Page{}, apperr.InvalidField("limit", "limit must be between 1 and %d", MaxLimit)
	}
	if number > MaxPage {
		return Page{}, apperr.InvalidField("page", "page must be between 1 and %d", MaxPage)
	}
	return Page{Number: number, Limit: limit}, nil
}

func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

// Sort is a resolved ORDER BY column and direction.
type Sort struct {
	Column string
	Desc   bool
}

// SortSpec is a resource's sortable-field allow-list, keyed by API name.
type SortSpec struct {
	Fields  map[string]string
	Default string
}

// Resolve maps sortBy to a column, falling back to the default field for
// unknown names. order is ASC or DESC, case-insensitive, DESC when empty.
func (s SortSpec) Resolve(sortBy, order string) (Sort, error) {
	col, ok := s.Fields[sortBy]
	if !ok {
		col = s.Fields[s.Default]
	}
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", "DESC":
		return Sort{Column: col, Desc: true}, nil
	case "ASC":
		return Sort{Column: col}, nil
	default:
		return Sort{}, apperr.InvalidField("sortOrder", "sortOrder must be ASC or DESC")
	}
}

// List is a complete read request against one collection.
type List struct {
	Filters []Cond
	// Status selects one lifecycle status. Empty excludes deleted rows.
	Status string
	Sort   Sort
	Page   Page
}

// Params are the raw listing parameters shared by every resource.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ParamsFromValues reads page, limit, sortBy and sortOrder. Non-numeric
// page or limit is a Validation error; bounds are checked by NewPage.
func ParamsFromValues(v url.Values) (Params, error) {
	p := Params{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    v.Get("sortBy"),
		SortOrder: v.Get("sortOrder"),
	}
	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, apperr.InvalidField("page", "page must be an integer")
		}
		p.Page = n
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, apperr.InvalidField("limit", "limit must be an integer")
		}
		p.Limit = n
	}
	return p, nil
}

// Build validates p against spec and assembles a List.
func (p Params) Build(spec SortSpec, status string, filters []Cond) (List, error) {
	page, err := NewPage(p.Page, p.Limit)
	if err != nil {
		return List{}, err
	}
	sort, err := spec.Resolve(p.SortBy, p.SortOrder)
	if err != nil {
		return List{}, err
	}
	return List{Filters: filters, Status: status, Sort: sort, Page: page}, nil
}

// Meta is the pagination envelope of a listing.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func NewMeta(p Page, total int) Meta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Meta{
		Page:       p.Number,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Number < totalPages,
		HasPrev:    p.Number > 1,
	}
}

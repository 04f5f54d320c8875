// Package service instantiates the resource pattern for each back-office
// module. Every operation takes the acting merchant id explicitly.
package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/pkg/patch"
	"github.com/shopspring/decimal"
)

const maxNameLen = 120

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// name trims s and checks its length.
func name(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.InvalidField(field, "%s is required", field)
	}
	if utf8.RuneCountInString(s) > maxNameLen {
		return "", apperr.InvalidField(field, "%s must be at most %d characters", field, maxNameLen)
	}
	return s, nil
}

// patchedName validates an optional name update. Null is rejected.
func patchedName(field string, f patch.Field[string]) (string, bool, error) {
	if !f.Provided() {
		return "", false, nil
	}
	v, ok := f.Value()
	if !ok {
		return "", false, apperr.InvalidField(field, "%s cannot be null", field)
	}
	s, err := name(field, v)
	return s, true, err
}

// notNull rejects an explicit null for fields that cannot be cleared.
func notNull[T any](field string, f patch.Field[T]) (T, bool, error) {
	v, ok := f.Value()
	if f.IsNull() {
		return v, false, apperr.InvalidField(field, "%s cannot be null", field)
	}
	return v, ok, nil
}

func subdomain(s string) (string, error) {
	s = resource.FoldKey(s)
	if !subdomainPattern.MatchString(s) {
		return "", apperr.InvalidField("subdomain",
			"subdomain must be 1-63 lowercase letters, digits or hyphens and cannot start or end with a hyphen")
	}
	return s, nil
}

func email(s string) (string, error) {
	s = resource.FoldKey(s)
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return "", apperr.InvalidField("email", "email must be a valid address")
	}
	return s, nil
}

// maxAmount is the exclusive upper bound of a NUMERIC(12,2) column.
var maxAmount = decimal.New(1, 10)

func amount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperr.InvalidField(field, "%s must not be negative", field)
	}
	if !d.Equal(d.Round(2)) {
		return apperr.InvalidField(field, "%s must have at most 2 decimal places", field)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return apperr.InvalidField(field, "%s must be less than %s", field, maxAmount.String())
	}
	return nil
}

func currency(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", apperr.InvalidField("currency", "currency must be a 3-letter code")
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", apperr.InvalidField("currency", "currency must be a 3-letter code")
		}
	}
	return s, nil
}

func date(field, s string) (time.Time, error) {
	return query.ParseDay(field, strings.TrimSpace(s))
}

func refID(field string, id int64) error {
	return resource.ValidateID(field, id)
}

// filters collects list conditions from query parameters. The first parse
// failure is kept and reported by done.
type filters struct {
	v     url.Values
	conds []query.Cond
	err   error
}

func newFilters(v url.Values) *filters {
	return &filters{v: v}
}

func (f *filters) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *filters) contains(param, column string) *filters {
	if s := strings.TrimSpace(f.v.Get(param)); s != "" {
		f.conds = append(f.conds, query.Contains(column, s))
	}
	return f
}

// eq adds an equality on the value after norm, which may reject it.
func (f *filters) eq(param, column string, norm func(string) (string, error)) *filters {
	s := strings.TrimSpace(f.v.Get(param))
	if s == "" {
		return f
	}
	if norm != nil {
		var err error
		if s, err = norm(s); err != nil {
			f.fail(err)
			return f
		}
	}
	f.conds = append(f.conds, query.Eq(column, s))
	return f
}

func (f *filters) id(param, column string) *filters {
	s := f.v.Get(param)
	if s == "" {
		return f
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		f.fail(apperr.InvalidField(param, "%s must be a positive integer", param))
		return f
	}
	f.conds = append(f.conds, query.Eq(column, n))
	return f
}

func (f *filters) minInt(param, column string) *filters {
	s := f.v.Get(param)
	if s == "" {
		return f
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f.fail(apperr.InvalidField(param, "%s must be an integer", param))
		return f
	}
	f.conds = append(f.conds, query.Gte(column, n))
	return f
}

func (f *filters) boolean(param, column string) *filters {
	s := f.v.Get(param)
	if s == "" {
		return f
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		f.fail(apperr.InvalidField(param, "%s must be true or false", param))
		return f
	}
	f.conds = append(f.conds, query.Eq(column, b))
	return f
}

// day matches a whole UTC day of a timestamp column.
func (f *filters) day(param, column string) *filters {
	s := f.v.Get(param)
	if s == "" {
		return f
	}
	d, err := query.ParseDay(param, s)
	if err != nil {
		f.fail(err)
		return f
	}
	f.conds = append(f.conds, query.Day(column, d)...)
	return f
}

// date matches a DATE column.
func (f *filters) date(param, column string) *filters {
	s := f.v.Get(param)
	if s == "" {
		return f
	}
	d, err := query.ParseDay(param, s)
	if err != nil {
		f.fail(err)
		return f
	}
	f.conds = append(f.conds, query.Eq(column, d))
	return f
}

func (f *filters) done() ([]query.Cond, error) {
	return f.conds, f.err
}

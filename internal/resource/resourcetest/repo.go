// Package resourcetest provides an in-memory resource.Repository for tests.
// It honours tenant scoping, lifecycle status, filters, sorting, paging and
// partial unique keys the way the Postgres tables do.
package resourcetest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/shopspring/decimal"
)

// Repo stores rows of S keyed by id. The zero value is not usable; call New.
type Repo[S any] struct {
	mu     sync.Mutex
	rows   map[int64]*S
	nextID int64
	clock  time.Time

	// Unique lists natural-key columns, unique per tenant among non-deleted
	// rows and compared case-insensitively.
	Unique []string
	// TenantOf resolves the tenant of rows without a merchant_id column.
	TenantOf func(*S) int64
	// Embed fills association fields on every row returned.
	Embed func(*S)
	// Err, when set, is returned by every call.
	Err error
}

func New[S any](unique ...string) *Repo[S] {
	return &Repo[S]{
		rows:   make(map[int64]*S),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Unique: unique,
	}
}

// now advances a fake clock so timestamps are strictly increasing.
func (r *Repo[S]) now() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

// Len returns the number of stored rows, deleted included.
func (r *Repo[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Peek returns a copy of the row with id regardless of tenant. Use it to wire
// TenantOf and Embed across repos.
func (r *Repo[S]) Peek(id int64) (*S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	c := *row
	return &c, true
}

func (r *Repo[S]) tenantOf(row *S) int64 {
	if r.TenantOf != nil {
		return r.TenantOf(row)
	}
	f, ok := field(reflect.ValueOf(row).Elem(), "merchant_id")
	if !ok {
		return 0
	}
	return f.Int()
}

func (r *Repo[S]) visible(row *S, tenantID int64) bool {
	return r.tenantOf(row) == tenantID
}

func statusOf(row any) models.Status {
	f, _ := field(reflect.ValueOf(row).Elem(), "status")
	return models.Status(f.String())
}

func (r *Repo[S]) out(row *S) *S {
	c := *row
	if r.Embed != nil {
		r.Embed(&c)
	}
	return &c
}

func (r *Repo[S]) Find(ctx context.Context, tenantID, id int64) (*S, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	row, ok := r.rows[id]
	if !ok || !r.visible(row, tenantID) {
		return nil, store.ErrNotFound
	}
	return r.out(row), nil
}

func (r *Repo[S]) List(ctx context.Context, tenantID int64, q query.List) ([]*S, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	var matched []*S
	for _, row := range r.rows {
		if !r.visible(row, tenantID) {
			continue
		}
		st := statusOf(row)
		if q.Status != "" && string(st) != q.Status {
			continue
		}
		if q.Status == "" && st == models.StatusDeleted {
			continue
		}
		ok, err := matches(row, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a := reflect.ValueOf(matched[i]).Elem()
		b := reflect.ValueOf(matched[j]).Elem()
		fa, _ := field(a, q.Sort.Column)
		fb, _ := field(b, q.Sort.Column)
		c := compare(scalar(fa), scalar(fb))
		if c == 0 {
			ia, _ := field(a, "id")
			ib, _ := field(b, "id")
			c = compare(ia.Int(), ib.Int())
		}
		if q.Sort.Desc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	start := q.Page.Offset()
	if start > total {
		start = total
	}
	end := start + q.Page.Limit
	if end > total {
		end = total
	}
	page := make([]*S, 0, end-start)
	for _, row := range matched[start:end] {
		page = append(page, r.out(row))
	}
	return page, total, nil
}

func (r *Repo[S]) Insert(ctx context.Context, tenantID int64, v store.Values) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	row := new(S)
	rv := reflect.ValueOf(row).Elem()
	if r.TenantOf == nil {
		if err := set(rv, "merchant_id", tenantID); err != nil {
			return 0, err
		}
	}
	for _, val := range v {
		if err := set(rv, val.Column, val.Arg); err != nil {
			return 0, err
		}
	}
	if f, _ := field(rv, "status"); f.String() == "" {
		_ = set(rv, "status", models.StatusActive)
	}
	if r.duplicate(row, 0) {
		return 0, store.ErrDuplicateKey
	}

	r.nextID++
	now := r.now()
	_ = set(rv, "id", r.nextID)
	_ = set(rv, "created_at", now)
	_ = set(rv, "updated_at", now)
	r.rows[r.nextID] = row
	return r.nextID, nil
}

func (r *Repo[S]) Update(ctx context.Context, tenantID, id int64, v store.Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	row, ok := r.rows[id]
	if !ok || !r.visible(row, tenantID) || statusOf(row) == models.StatusDeleted {
		return store.ErrNotFound
	}

	next := *row
	nv := reflect.ValueOf(&next).Elem()
	for _, val := range v {
		if err := set(nv, val.Column, val.Arg); err != nil {
			return err
		}
	}
	if r.duplicate(&next, id) {
		return store.ErrDuplicateKey
	}
	_ = set(nv, "updated_at", r.now())
	*row = next
	return nil
}

func (r *Repo[S]) Transition(ctx context.Context, tenantID, id int64, from, to models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	row, ok := r.rows[id]
	if !ok || !r.visible(row, tenantID) || statusOf(row) != from {
		return store.ErrNotFound
	}
	rv := reflect.ValueOf(row).Elem()
	_ = set(rv, "status", to)
	_ = set(rv, "updated_at", r.now())
	return nil
}

func (r *Repo[S]) Delete(ctx context.Context, tenantID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	row, ok := r.rows[id]
	if !ok || !r.visible(row, tenantID) {
		return store.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Repo[S]) ExistsActive(ctx context.Context, tenantID int64, column, value string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for id, row := range r.rows {
		if id == excludeID || !r.visible(row, tenantID) || statusOf(row) == models.StatusDeleted {
			continue
		}
		f, ok := field(reflect.ValueOf(row).Elem(), column)
		if !ok {
			return false, fmt.Errorf("resourcetest: unknown column %q", column)
		}
		if strings.EqualFold(f.String(), value) {
			return true, nil
		}
	}
	return false, nil
}

// duplicate reports whether row collides on a unique column with another
// non-deleted row of the same tenant.
func (r *Repo[S]) duplicate(row *S, selfID int64) bool {
	if statusOf(row) == models.StatusDeleted {
		return false
	}
	tenantID := r.tenantOf(row)
	rv := reflect.ValueOf(row).Elem()
	for _, col := range r.Unique {
		f, ok := field(rv, col)
		if !ok {
			continue
		}
		for id, other := range r.rows {
			if id == selfID || r.tenantOf(other) != tenantID || statusOf(other) == models.StatusDeleted {
				continue
			}
			of, _ := field(reflect.ValueOf(other).Elem(), col)
			if strings.EqualFold(of.String(), f.String()) {
				return true
			}
		}
	}
	return false
}

func field(v reflect.Value, column string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("db") == column {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func set(v reflect.Value, column string, arg any) error {
	f, ok := field(v, column)
	if !ok {
		return fmt.Errorf("resourcetest: unknown column %q", column)
	}
	return assign(f, arg)
}

func assign(dst reflect.Value, arg any) error {
	if arg == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	av := reflect.ValueOf(arg)
	if av.Kind() == reflect.Pointer {
		if av.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if !av.Type().AssignableTo(dst.Type()) {
			av = av.Elem()
		}
	}
	if dst.Kind() == reflect.Pointer && !av.Type().AssignableTo(dst.Type()) {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), av.Interface()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	switch {
	case av.Type().AssignableTo(dst.Type()):
		dst.Set(av)
	case av.Kind() == dst.Kind() && av.Type().ConvertibleTo(dst.Type()):
		dst.Set(av.Convert(dst.Type()))
	case isInt(av.Kind()) && isInt(dst.Kind()):
		dst.SetInt(av.Int())
	default:
		return fmt.Errorf("resourcetest: cannot assign %s to %s", av.Type(), dst.Type())
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// scalar reduces a field or filter value to string, int64, float64, bool,
// time.Time, decimal.Decimal or nil.
func scalar(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case time.Time:
		return x
	case decimal.Decimal:
		return x
	}
	switch {
	case v.Kind() == reflect.String:
		return v.String()
	case isInt(v.Kind()):
		return v.Int()
	case v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64:
		return v.Float()
	case v.Kind() == reflect.Bool:
		return v.Bool()
	}
	return v.Interface()
}

// compare orders values like Postgres does for one type; NULL sorts last.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y)
		case float64:
			return cmpOrdered(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmpOrdered(x, y)
		case int64:
			return cmpOrdered(x, float64(y))
		}
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	case decimal.Decimal:
		return x.Cmp(b.(decimal.Decimal))
	}
	panic(fmt.Sprintf("resourcetest: cannot compare %T with %T", a, b))
}

func cmpOrdered[N int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func matches(row any, conds []query.Cond) (bool, error) {
	rv := reflect.ValueOf(row).Elem()
	for _, c := range conds {
		f, ok := field(rv, c.Column)
		if !ok {
			return false, fmt.Errorf("resourcetest: unknown filter column %q", c.Column)
		}
		got := scalar(f)
		want := scalar(reflect.ValueOf(c.Value))
		if got == nil {
			return false, nil
		}
		switch c.Op {
		case query.OpEq:
			if compare(got, want) != 0 {
				return false, nil
			}
		case query.OpContains:
			s, _ := got.(string)
			sub, _ := want.(string)
			if !strings.Contains(strings.ToLower(s), strings.ToLower(sub)) {
				return false, nil
			}
		case query.OpGte:
			if compare(got, want) < 0 {
				return false, nil
			}
		case query.OpLt:
			if compare(got, want) >= 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("resourcetest: unsupported op %d", c.Op)
		}
	}
	return true, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/pkg/models"
)

var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Parent is the association through which a resource without its own tenant
// column reaches its merchant.
type Parent struct {
	Table  string
	Alias  string
	On     string // join condition, e.g. "s.id = m.store_id"
	Tenant string // tenant column on the parent table
}

// Schema maps a resource onto SQL.
type Schema struct {
	Table string
	Alias string
	// Tenant is the tenant column on Table. Ignored when Parent is set.
	Tenant string
	Parent *Parent
	// Columns are the select expressions. Names must match the model's db tags.
	Columns []string
	// Joins are extra LEFT JOINs for embedded association fields. They only
	// appear in reads.
	Joins string
}

func (s Schema) tenantExpr() string {
	if s.Parent != nil {
		return s.Parent.Alias + "." + s.Parent.Tenant
	}
	return s.Alias + "." + s.Tenant
}

func (s Schema) col(name string) string {
	return s.Alias + "." + name
}

// from renders the FROM clause, including the tenant path.
func (s Schema) from(withJoins bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.Table, s.Alias)
	if s.Parent != nil {
		fmt.Fprintf(&b, " JOIN %s %s ON %s", s.Parent.Table, s.Parent.Alias, s.Parent.On)
	}
	if withJoins && s.Joins != "" {
		b.WriteString(" ")
		b.WriteString(s.Joins)
	}
	return b.String()
}

// Table is the pgx-backed repository of one resource. Every statement is
// restricted to the acting tenant.
type Table[S any] struct {
	db     DBTX
	schema Schema
}

func NewTable[S any](db DBTX, schema Schema) *Table[S] {
	return &Table[S]{db: db, schema: schema}
}

// predicate accumulates WHERE conditions and positional arguments.
type predicate struct {
	conds []string
	args  []any
}

func (p *predicate) arg(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicate) add(format string, v any) {
	p.conds = append(p.conds, fmt.Sprintf(format, p.arg(v)))
}

func (p *predicate) where() string {
	return strings.Join(p.conds, " AND ")
}

func (t *Table[S]) scoped(tenantID int64) *predicate {
	p := &predicate{}
	p.add(t.schema.tenantExpr()+" = %s", tenantID)
	return p
}

// Find returns the row with id if it belongs to tenantID, whatever its status.
func (t *Table[S]) Find(ctx context.Context, tenantID, id int64) (*S, error) {
	p := t.scoped(tenantID)
	p.add(t.schema.col("id")+" = %s", id)

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(t.schema.Columns, ", "), t.schema.from(true), p.where())
	rows, err := t.db.Query(ctx, sql, p.args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}
	rec, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[S])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.schema.Table, err)
	}
	return rec, nil
}

// List runs a count query and a page query over the same predicate.
func (t *Table[S]) List(ctx context.Context, tenantID int64, q query.List) ([]*S, int, error) {
	p := t.scoped(tenantID)
	if q.Status != "" {
		p.add(t.schema.col("status")+" = %s", q.Status)
	} else {
		p.add(t.schema.col("status")+" <> %s", string(models.StatusDeleted))
	}
	for _, c := range q.Filters {
		if err := t.addCond(p, c); err != nil {
			return nil, 0, err
		}
	}
	where := p.where()

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", t.schema.from(false), where)
	if err := t.db.QueryRow(ctx, countSQL, p.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.schema.Table, err)
	}

	if !columnName.MatchString(q.Sort.Column) {
		return nil, 0, fmt.Errorf("list %s: invalid sort column %q", t.schema.Table, q.Sort.Column)
	}
	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}
	limit := p.arg(q.Page.Limit)
	offset := p.arg(q.Page.Offset())

	dataSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s %s, %s %s LIMIT %s OFFSET %s",
		strings.Join(t.schema.Columns, ", "), t.schema.from(true), where,
		t.schema.col(q.Sort.Column), dir, t.schema.col("id"), dir, limit, offset)
	rows, err := t.db.Query(ctx, dataSQL, p.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.schema.Table, err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[S])
	if err != nil {
		return nil, 0, fmt.Errorf("scan %s: %w", t.schema.Table, err)
	}
	return recs, total, nil
}

func (t *Table[S]) addCond(p *predicate, c query.Cond) error {
	if !columnName.MatchString(c.Column) {
		return fmt.Errorf("list %s: invalid filter column %q", t.schema.Table, c.Column)
	}
	col := t.schema.col(c.Column)
	switch c.Op {
	case query.OpEq:
		p.add(col+" = %s", c.Value)
	case query.OpContains:
		s, _ := c.Value.(string)
		p.add(col+" ILIKE %s", "%"+escapeLike(s)+"%")
	case query.OpGte:
		p.add(col+" >= %s", c.Value)
	case query.OpLt:
		p.add(col+" < %s", c.Value)
	default:
		return fmt.Errorf("list %s: unsupported filter op %d", t.schema.Table, c.Op)
	}
	return nil
}

// Insert adds a row and returns its id. For resources with a direct tenant
// column the tenant is written from tenantID; others inherit it from their
// parent reference.
func (t *Table[S]) Insert(ctx context.Context, tenantID int64, v Values) (int64, error) {
	if t.schema.Parent == nil {
		v = append(Values{{Column: t.schema.Tenant, Arg: tenantID}}, v...)
	}
	cols := make([]string, 0, len(v))
	p := &predicate{}
	placeholders := make([]string, 0, len(v))
	for _, val := range v {
		if !columnName.MatchString(val.Column) {
			return 0, fmt.Errorf("insert %s: invalid column %q", t.schema.Table, val.Column)
		}
		cols = append(cols, val.Column)
		placeholders = append(placeholders, p.arg(val.Arg))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		t.schema.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	var id int64
	if err := t.db.QueryRow(ctx, sql, p.args...).Scan(&id); err != nil {
		if isDuplicateKeyError(err) {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("insert %s: %w", t.schema.Table, err)
	}
	return id, nil
}

// Update assigns v to a non-deleted row of tenantID and bumps updated_at.
// ErrNotFound means no such non-deleted row exists.
func (t *Table[S]) Update(ctx context.Context, tenantID, id int64, v Values) error {
	p := &predicate{}
	sets := make([]string, 0, len(v)+1)
	for _, val := range v {
		if !columnName.MatchString(val.Column) {
			return fmt.Errorf("update %s: invalid column %q", t.schema.Table, val.Column)
		}
		sets = append(sets, val.Column+" = "+p.arg(val.Arg))
	}
	sets = append(sets, "updated_at = NOW()")
	p.add(t.schema.col("id")+" = %s", id)
	p.add(t.schema.tenantExpr()+" = %s", tenantID)
	p.add(t.schema.col("status")+" <> %s", string(models.StatusDeleted))

	tag, err := t.db.Exec(ctx, t.updateSQL(strings.Join(sets, ", "), p), p.args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update %s: %w", t.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Transition moves a row from one lifecycle status to another. ErrNotFound
// means the row is missing or no longer in from.
func (t *Table[S]) Transition(ctx context.Context, tenantID, id int64, from, to models.Status) error {
	p := &predicate{}
	set := "status = " + p.arg(string(to)) + ", updated_at = NOW()"
	p.add(t.schema.col("id")+" = %s", id)
	p.add(t.schema.tenantExpr()+" = %s", tenantID)
	p.add(t.schema.col("status")+" = %s", string(from))

	tag, err := t.db.Exec(ctx, t.updateSQL(set, p), p.args...)
	if err != nil {
		return fmt.Errorf("transition %s: %w", t.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Table[S]) updateSQL(set string, p *predicate) string {
	if t.schema.Parent != nil {
		pa := t.schema.Parent
		return fmt.Sprintf("UPDATE %s AS %s SET %s FROM %s %s WHERE %s AND %s",
			t.schema.Table, t.schema.Alias, set, pa.Table, pa.Alias, pa.On, p.where())
	}
	return fmt.Sprintf("UPDATE %s AS %s SET %s WHERE %s",
		t.schema.Table, t.schema.Alias, set, p.where())
}

// Delete physically removes a row of tenantID.
func (t *Table[S]) Delete(ctx context.Context, tenantID, id int64) error {
	p := &predicate{}
	p.add(t.schema.col("id")+" = %s", id)
	p.add(t.schema.tenantExpr()+" = %s", tenantID)

	var sql string
	if pa := t.schema.Parent; pa != nil {
		sql = fmt.Sprintf("DELETE FROM %s AS %s USING %s %s WHERE %s AND %s",
			t.schema.Table, t.schema.Alias, pa.Table, pa.Alias, pa.On, p.where())
	} else {
		sql = fmt.Sprintf("DELETE FROM %s AS %s WHERE %s", t.schema.Table, t.schema.Alias, p.where())
	}
	tag, err := t.db.Exec(ctx, sql, p.args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsActive reports whether a non-deleted row of tenantID has column equal
// to value, compared case-insensitively. excludeID skips the row being
// updated; pass 0 on create.
func (t *Table[S]) ExistsActive(ctx context.Context, tenantID int64, column, value string, excludeID int64) (bool, error) {
	if !columnName.MatchString(column) {
		return false, fmt.Errorf("exists %s: invalid column %q", t.schema.Table, column)
	}
	p := t.scoped(tenantID)
	p.add("lower("+t.schema.col(column)+") = lower(%s)", value)
	p.add(t.schema.col("status")+" <> %s", string(models.StatusDeleted))
	p.add(t.schema.col("id")+" <> %s", excludeID)

	var exists bool
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", t.schema.from(false), p.where())
	if err := t.db.QueryRow(ctx, sql, p.args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", t.schema.Table, err)
	}
	return exists, nil
}

// escapeLike escapes LIKE metacharacters so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

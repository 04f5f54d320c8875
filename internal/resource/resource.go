// Package resource implements the tenant-scoped resource pattern shared by
// every back-office module: referential validation, natural-key uniqueness,
// scoped listing and the active -> deleted lifecycle.
package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"go.uber.org/zap"
)

// Repository is the persistence of one resource, restricted to a tenant on
// every call. *store.Table[S] implements Repository[*S].
type Repository[T models.Entity] interface {
	// Find returns the record whatever its status, or store.ErrNotFound.
	Find(ctx context.Context, tenantID, id int64) (T, error)
	List(ctx context.Context, tenantID int64, q query.List) ([]T, int, error)
	Insert(ctx context.Context, tenantID int64, v store.Values) (int64, error)
	// Update only touches non-deleted rows.
	Update(ctx context.Context, tenantID, id int64, v store.Values) error
	Transition(ctx context.Context, tenantID, id int64, from, to models.Status) error
	Delete(ctx context.Context, tenantID, id int64) error
	ExistsActive(ctx context.Context, tenantID int64, column, value string, excludeID int64) (bool, error)
}

// DeleteMode selects what Remove does with the row.
type DeleteMode int

const (
	DeleteSoft DeleteMode = iota
	// DeleteHard physically removes the row. Only for leaf resources that
	// nothing references.
	DeleteHard
)

// Key names a natural key by its API field and its column.
type Key struct {
	Field  string
	Column string
}

// Engine runs the scoped operations of one resource.
type Engine[T models.Entity] struct {
	Name string // human name used in messages, e.g. "online store"
	Repo Repository[T]
	Sort query.SortSpec
	Mode DeleteMode
}

// ValidateID rejects non-positive ids.
func ValidateID(field string, id int64) error {
	if id <= 0 {
		return apperr.InvalidField(field, "%s must be a positive integer", field)
	}
	return nil
}

// FoldKey trims and lower-cases a natural key. Stored folded.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrimKey trims a natural key. Stored trimmed, compared case-insensitively.
func TrimKey(s string) string {
	return strings.TrimSpace(s)
}

// EnsureActive rejects mutations of deleted records.
func EnsureActive(name string, e models.Entity) error {
	if e.LifecycleStatus() == models.StatusDeleted {
		return apperr.Conflict("cannot update a deleted %s", name)
	}
	return nil
}

// Get returns a record of tenantID, deleted records included.
func (e *Engine[T]) Get(ctx context.Context, tenantID, id int64) (T, error) {
	var zero T
	if err := tenant.Require(tenantID); err != nil {
		return zero, err
	}
	if err := ValidateID("id", id); err != nil {
		return zero, err
	}
	return e.find(ctx, tenantID, id)
}

func (e *Engine[T]) find(ctx context.Context, tenantID, id int64) (T, error) {
	rec, err := e.Repo.Find(ctx, tenantID, id)
	if errors.Is(err, store.ErrNotFound) {
		var zero T
		return zero, apperr.NotFound("%s %d not found", e.Name, id)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", e.Name, err)
	}
	return rec, nil
}

// List validates paging and status, then runs the scoped listing.
func (e *Engine[T]) List(ctx context.Context, tenantID int64, p query.Params, status string, filters []query.Cond) ([]T, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, query.Meta{}, apperr.InvalidField("status", "%s", err.Error())
	}
	q, err := p.Build(e.Sort, string(st), filters)
	if err != nil {
		return nil, query.Meta{}, err
	}

	rows, total, err := e.Repo.List(ctx, tenantID, q)
	if err != nil {
		return nil, query.Meta{}, fmt.Errorf("list %s: %w", e.Name, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, query.NewMeta(q.Page, total), nil
}

// EnsureUnique fails with Conflict when another non-deleted record of
// tenantID already uses value for key. excludeID is the record being
// updated, 0 on create.
func (e *Engine[T]) EnsureUnique(ctx context.Context, tenantID int64, key Key, value string, excludeID int64) error {
	exists, err := e.Repo.ExistsActive(ctx, tenantID, key.Column, value, excludeID)
	if err != nil {
		return fmt.Errorf("check %s %s: %w", e.Name, key.Field, err)
	}
	if exists {
		return e.conflict(tenantID, key, value)
	}
	return nil
}

func (e *Engine[T]) conflict(tenantID int64, key Key, value string) error {
	return &apperr.Error{
		Kind:    apperr.KindConflict,
		Message: fmt.Sprintf("%s with %s %q already exists for merchant %d", e.Name, key.Field, value, tenantID),
		Details: map[string]string{key.Field: value},
	}
}

// Create persists v and returns the re-fetched record. key names the natural
// key, if any, so a unique violation from the write reads like the pre-check.
func (e *Engine[T]) Create(ctx context.Context, tenantID int64, v store.Values, key *Key) (T, error) {
	var zero T
	if err := tenant.Require(tenantID); err != nil {
		return zero, err
	}
	id, err := e.Repo.Insert(ctx, tenantID, v)
	if err != nil {
		return zero, e.writeError("create", tenantID, v, key, err)
	}

	logger.FromContext(ctx).Info("created",
		zap.String("resource", e.Name), zap.Int64("id", id), zap.Int64("merchant_id", tenantID))
	return e.find(ctx, tenantID, id)
}

func (e *Engine[T]) writeError(op string, tenantID int64, v store.Values, key *Key, err error) error {
	if errors.Is(err, store.ErrDuplicateKey) {
		if key != nil {
			if val, ok := v.Get(key.Column); ok {
				return e.conflict(tenantID, *key, fmt.Sprint(val))
			}
		}
		return apperr.Conflict("%s conflicts with an existing record", e.Name)
	}
	return fmt.Errorf("%s %s: %w", op, e.Name, err)
}

// LoadActive loads the target of an update: NotFound when it is not visible
// to tenantID, Conflict when it is deleted.
func (e *Engine[T]) LoadActive(ctx context.Context, tenantID, id int64) (T, error) {
	rec, err := e.Get(ctx, tenantID, id)
	if err != nil {
		return rec, err
	}
	if err := EnsureActive(e.Name, rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// Apply writes v to an active record and returns it re-fetched. An empty v
// only re-fetches.
func (e *Engine[T]) Apply(ctx context.Context, tenantID, id int64, v store.Values, key *Key) (T, error) {
	var zero T
	if err := tenant.Require(tenantID); err != nil {
		return zero, err
	}
	if len(v) > 0 {
		err := e.Repo.Update(ctx, tenantID, id, v)
		if errors.Is(err, store.ErrNotFound) {
			// Removed between load and write.
			if _, lerr := e.LoadActive(ctx, tenantID, id); lerr != nil {
				return zero, lerr
			}
			return zero, apperr.NotFound("%s %d not found", e.Name, id)
		}
		if err != nil {
			return zero, e.writeError("update", tenantID, v, key, err)
		}
		logger.FromContext(ctx).Info("updated",
			zap.String("resource", e.Name), zap.Int64("id", id), zap.Int64("merchant_id", tenantID))
	}
	return e.find(ctx, tenantID, id)
}

// Remove ends the lifecycle of a record. A soft delete returns the record
// with status deleted; a hard delete returns it as it was before removal.
func (e *Engine[T]) Remove(ctx context.Context, tenantID, id int64) (T, error) {
	var zero T
	if err := tenant.Require(tenantID); err != nil {
		return zero, err
	}
	if err := ValidateID("id", id); err != nil {
		return zero, err
	}
	rec, err := e.find(ctx, tenantID, id)
	if err != nil {
		return zero, err
	}
	if rec.LifecycleStatus() == models.StatusDeleted {
		return zero, apperr.Conflict("%s %d is already deleted", e.Name, id)
	}

	if e.Mode == DeleteHard {
		err = e.Repo.Delete(ctx, tenantID, id)
	} else {
		err = e.Repo.Transition(ctx, tenantID, id, models.StatusActive, models.StatusDeleted)
	}
	if errors.Is(err, store.ErrNotFound) {
		return zero, apperr.Conflict("%s %d is already deleted", e.Name, id)
	}
	if err != nil {
		return zero, fmt.Errorf("remove %s: %w", e.Name, err)
	}

	logger.FromContext(ctx).Info("removed",
		zap.String("resource", e.Name), zap.Int64("id", id), zap.Int64("merchant_id", tenantID),
		zap.Bool("hard", e.Mode == DeleteHard))
	if e.Mode == DeleteHard {
		return rec, nil
	}
	return e.find(ctx, tenantID, id)
}

// Resolve loads a referenced record for tenantID. Missing, foreign and
// deleted references all fail with NotFound.
func Resolve[R models.Entity](ctx context.Context, repo Repository[R], name string, tenantID, id int64) (R, error) {
	var zero R
	rec, err := repo.Find(ctx, tenantID, id)
	if errors.Is(err, store.ErrNotFound) {
		return zero, apperr.NotFound("%s %d not found", name, id)
	}
	if err != nil {
		return zero, fmt.Errorf("resolve %s: %w", name, err)
	}
	if rec.LifecycleStatus() == models.StatusDeleted {
		return zero, apperr.NotFound("%s %d not found", name, id)
	}
	return rec, nil
}

// ResolveOptional is Resolve for optional references. A nil id is accepted
// without a lookup and yields the zero R.
func ResolveOptional[R models.Entity](ctx context.Context, repo Repository[R], name string, tenantID int64, id *int64) (R, error) {
	if id == nil {
		var zero R
		return zero, nil
	}
	return Resolve(ctx, repo, name, tenantID, *id)
}

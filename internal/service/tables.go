package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/kiranshivaraju/backoffice/pkg/patch"
)

const maxCapacity = 100

var tableNumberKey = resource.Key{Field: "tableNumber", Column: "table_number"}

type CreateTableInput struct {
	TableNumber string `json:"tableNumber"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location"`
}

type UpdateTableInput struct {
	TableNumber patch.Field[string] `json:"tableNumber"`
	Capacity    patch.Field[int]    `json:"capacity"`
	Location    patch.Field[string] `json:"location"`
}

type TableService struct {
	engine *resource.Engine[*models.Table]
}

func NewTableService(tables resource.Repository[*models.Table]) *TableService {
	return &TableService{engine: &resource.Engine[*models.Table]{
		Name: "table",
		Repo: tables,
		Sort: query.SortSpec{
			Fields: map[string]string{
				"tableNumber": "table_number",
				"capacity":    "capacity",
				"createdAt":   "created_at",
				"updatedAt":   "updated_at",
			},
			Default: "updatedAt",
		},
	}}
}

func capacity(n int) error {
	if n < 1 || n > maxCapacity {
		return apperr.InvalidField("capacity", "capacity must be between 1 and %d", maxCapacity)
	}
	return nil
}

func (s *TableService) Create(ctx context.Context, tenantID int64, in CreateTableInput) (*models.Table, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	num, err := name("tableNumber", resource.TrimKey(in.TableNumber))
	if err != nil {
		return nil, err
	}
	if err := capacity(in.Capacity); err != nil {
		return nil, err
	}

	if err := s.engine.EnsureUnique(ctx, tenantID, tableNumberKey, num, 0); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("table_number", num).
		Set("capacity", in.Capacity).
		Set("location", strings.TrimSpace(in.Location))
	return s.engine.Create(ctx, tenantID, v, &tableNumberKey)
}

func (s *TableService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.Table, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		contains("location", "location").
		minInt("minCapacity", "capacity").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *TableService) Get(ctx context.Context, tenantID, id int64) (*models.Table, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *TableService) Update(ctx context.Context, tenantID, id int64, in UpdateTableInput) (*models.Table, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	num, numSet, err := patchedName("tableNumber", in.TableNumber)
	if err != nil {
		return nil, err
	}
	c, ok, err := notNull("capacity", in.Capacity)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := capacity(c); err != nil {
			return nil, err
		}
		v = v.Set("capacity", c)
	}
	loc, ok, err := notNull("location", in.Location)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("location", strings.TrimSpace(loc))
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if numSet && num != cur.TableNumber {
		if !strings.EqualFold(num, cur.TableNumber) {
			if err := s.engine.EnsureUnique(ctx, tenantID, tableNumberKey, num, id); err != nil {
				return nil, err
			}
		}
		v = v.Set("table_number", num)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &tableNumberKey)
}

func (s *TableService) Remove(ctx context.Context, tenantID, id int64) (*models.Table, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

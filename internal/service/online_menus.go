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

type CreateOnlineMenuInput struct {
	StoreID     int64  `json:"storeId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsAvailable *bool  `json:"isAvailable"`
	SortOrder   int    `json:"sortOrder"`
}

type UpdateOnlineMenuInput struct {
	StoreID     patch.Field[int64]  `json:"storeId"`
	Name        patch.Field[string] `json:"name"`
	Description patch.Field[string] `json:"description"`
	IsAvailable patch.Field[bool]   `json:"isAvailable"`
	SortOrder   patch.Field[int]    `json:"sortOrder"`
}

// OnlineMenuService manages menus. Menus have no merchant column of their own;
// they belong to the merchant of their store. Removing a menu deletes it.
type OnlineMenuService struct {
	engine *resource.Engine[*models.OnlineMenu]
	stores resource.Repository[*models.OnlineStore]
}

func NewOnlineMenuService(menus resource.Repository[*models.OnlineMenu], stores resource.Repository[*models.OnlineStore]) *OnlineMenuService {
	return &OnlineMenuService{
		engine: &resource.Engine[*models.OnlineMenu]{
			Name: "online menu",
			Repo: menus,
			Sort: query.SortSpec{
				Fields: map[string]string{
					"name":      "name",
					"sortOrder": "sort_order",
					"createdAt": "created_at",
					"updatedAt": "updated_at",
				},
				Default: "updatedAt",
			},
			Mode: resource.DeleteHard,
		},
		stores: stores,
	}
}

func sortOrder(n int) error {
	if n < 0 {
		return apperr.InvalidField("sortOrder", "sortOrder must not be negative")
	}
	return nil
}

func (s *OnlineMenuService) Create(ctx context.Context, tenantID int64, in CreateOnlineMenuInput) (*models.OnlineMenu, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := refID("storeId", in.StoreID); err != nil {
		return nil, err
	}
	n, err := name("name", in.Name)
	if err != nil {
		return nil, err
	}
	if err := sortOrder(in.SortOrder); err != nil {
		return nil, err
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}

	if _, err := resource.Resolve(ctx, s.stores, "online store", tenantID, in.StoreID); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("store_id", in.StoreID).
		Set("name", n).
		Set("description", strings.TrimSpace(in.Description)).
		Set("is_available", available).
		Set("sort_order", in.SortOrder)
	return s.engine.Create(ctx, tenantID, v, nil)
}

func (s *OnlineMenuService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.OnlineMenu, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		id("storeId", "store_id").
		contains("name", "name").
		boolean("isAvailable", "is_available").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *OnlineMenuService) Get(ctx context.Context, tenantID, id int64) (*models.OnlineMenu, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *OnlineMenuService) Update(ctx context.Context, tenantID, id int64, in UpdateOnlineMenuInput) (*models.OnlineMenu, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	storeID, storeSet, err := notNull("storeId", in.StoreID)
	if err != nil {
		return nil, err
	}
	if storeSet {
		if err := refID("storeId", storeID); err != nil {
			return nil, err
		}
	}
	n, ok, err := patchedName("name", in.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("name", n)
	}
	desc, ok, err := notNull("description", in.Description)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("description", strings.TrimSpace(desc))
	}
	available, ok, err := notNull("isAvailable", in.IsAvailable)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("is_available", available)
	}
	order, ok, err := notNull("sortOrder", in.SortOrder)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := sortOrder(order); err != nil {
			return nil, err
		}
		v = v.Set("sort_order", order)
	}

	if storeSet {
		if _, err := resource.Resolve(ctx, s.stores, "online store", tenantID, storeID); err != nil {
			return nil, err
		}
		v = v.Set("store_id", storeID)
	}
	if _, err := s.engine.LoadActive(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.engine.Apply(ctx, tenantID, id, v, nil)
}

func (s *OnlineMenuService) Remove(ctx context.Context, tenantID, id int64) (*models.OnlineMenu, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/kiranshivaraju/backoffice/pkg/patch"
)

var subdomainKey = resource.Key{Field: "subdomain", Column: "subdomain"}

type CreateOnlineStoreInput struct {
	Name        string `json:"name"`
	Subdomain   string `json:"subdomain"`
	Description string `json:"description"`
	IsOpen      *bool  `json:"isOpen"`
}

type UpdateOnlineStoreInput struct {
	Name        patch.Field[string] `json:"name"`
	Subdomain   patch.Field[string] `json:"subdomain"`
	Description patch.Field[string] `json:"description"`
	IsOpen      patch.Field[bool]   `json:"isOpen"`
}

type OnlineStoreService struct {
	engine *resource.Engine[*models.OnlineStore]
}

func NewOnlineStoreService(stores resource.Repository[*models.OnlineStore]) *OnlineStoreService {
	return &OnlineStoreService{engine: &resource.Engine[*models.OnlineStore]{
		Name: "online store",
		Repo: stores,
		Sort: query.SortSpec{
			Fields: map[string]string{
				"name":      "name",
				"subdomain": "subdomain",
				"createdAt": "created_at",
				"updatedAt": "updated_at",
			},
			Default: "updatedAt",
		},
	}}
}

func (s *OnlineStoreService) Create(ctx context.Context, tenantID int64, in CreateOnlineStoreInput) (*models.OnlineStore, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	n, err := name("name", in.Name)
	if err != nil {
		return nil, err
	}
	sub, err := subdomain(in.Subdomain)
	if err != nil {
		return nil, err
	}
	isOpen := true
	if in.IsOpen != nil {
		isOpen = *in.IsOpen
	}

	if err := s.engine.EnsureUnique(ctx, tenantID, subdomainKey, sub, 0); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("name", n).
		Set("subdomain", sub).
		Set("description", strings.TrimSpace(in.Description)).
		Set("is_open", isOpen)
	return s.engine.Create(ctx, tenantID, v, &subdomainKey)
}

func (s *OnlineStoreService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.OnlineStore, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		contains("name", "name").
		eq("subdomain", "subdomain", func(s string) (string, error) { return resource.FoldKey(s), nil }).
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *OnlineStoreService) Get(ctx context.Context, tenantID, id int64) (*models.OnlineStore, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *OnlineStoreService) Update(ctx context.Context, tenantID, id int64, in UpdateOnlineStoreInput) (*models.OnlineStore, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	n, ok, err := patchedName("name", in.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("name", n)
	}
	raw, subSet, err := notNull("subdomain", in.Subdomain)
	if err != nil {
		return nil, err
	}
	var sub string
	if subSet {
		if sub, err = subdomain(raw); err != nil {
			return nil, err
		}
	}
	desc, ok, err := notNull("description", in.Description)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("description", strings.TrimSpace(desc))
	}
	isOpen, ok, err := notNull("isOpen", in.IsOpen)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("is_open", isOpen)
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if subSet && sub != cur.Subdomain {
		if err := s.engine.EnsureUnique(ctx, tenantID, subdomainKey, sub, id); err != nil {
			return nil, err
		}
		v = v.Set("subdomain", sub)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &subdomainKey)
}

func (s *OnlineStoreService) Remove(ctx context.Context, tenantID, id int64) (*models.OnlineStore, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

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

var emailKey = resource.Key{Field: "email", Column: "email"}

type CreateCustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type UpdateCustomerInput struct {
	Name  patch.Field[string] `json:"name"`
	Email patch.Field[string] `json:"email"`
	Phone patch.Field[string] `json:"phone"`
}

type CustomerService struct {
	engine *resource.Engine[*models.Customer]
}

func NewCustomerService(customers resource.Repository[*models.Customer]) *CustomerService {
	return &CustomerService{engine: &resource.Engine[*models.Customer]{
		Name: "customer",
		Repo: customers,
		Sort: query.SortSpec{
			Fields: map[string]string{
				"name":      "name",
				"createdAt": "created_at",
				"updatedAt": "updated_at",
			},
			Default: "createdAt",
		},
	}}
}

func (s *CustomerService) Create(ctx context.Context, tenantID int64, in CreateCustomerInput) (*models.Customer, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	n, err := name("name", in.Name)
	if err != nil {
		return nil, err
	}
	e, err := email(in.Email)
	if err != nil {
		return nil, err
	}

	if err := s.engine.EnsureUnique(ctx, tenantID, emailKey, e, 0); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("name", n).
		Set("email", e).
		Set("phone", strings.TrimSpace(in.Phone))
	return s.engine.Create(ctx, tenantID, v, &emailKey)
}

func (s *CustomerService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.Customer, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		contains("name", "name").
		eq("email", "email", func(s string) (string, error) { return resource.FoldKey(s), nil }).
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *CustomerService) Get(ctx context.Context, tenantID, id int64) (*models.Customer, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *CustomerService) Update(ctx context.Context, tenantID, id int64, in UpdateCustomerInput) (*models.Customer, error) {
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
	raw, emailSet, err := notNull("email", in.Email)
	if err != nil {
		return nil, err
	}
	var e string
	if emailSet {
		if e, err = email(raw); err != nil {
			return nil, err
		}
	}
	phone, ok, err := notNull("phone", in.Phone)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("phone", strings.TrimSpace(phone))
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if emailSet && e != cur.Email {
		if err := s.engine.EnsureUnique(ctx, tenantID, emailKey, e, id); err != nil {
			return nil, err
		}
		v = v.Set("email", e)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &emailKey)
}

func (s *CustomerService) Remove(ctx context.Context, tenantID, id int64) (*models.Customer, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

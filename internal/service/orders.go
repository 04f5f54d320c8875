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
	"github.com/shopspring/decimal"
)

var orderNumberKey = resource.Key{Field: "orderNumber", Column: "order_number"}

type CreateOrderInput struct {
	OrderNumber string          `json:"orderNumber"`
	CustomerID  *int64          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type UpdateOrderInput struct {
	OrderNumber patch.Field[string]          `json:"orderNumber"`
	CustomerID  patch.Field[int64]           `json:"customerId"`
	TotalAmount patch.Field[decimal.Decimal] `json:"totalAmount"`
}

// OrderService manages point-of-sale orders.
type OrderService struct {
	engine    *resource.Engine[*models.Order]
	customers resource.Repository[*models.Customer]
}

func NewOrderService(orders resource.Repository[*models.Order], customers resource.Repository[*models.Customer]) *OrderService {
	return &OrderService{
		engine: &resource.Engine[*models.Order]{
			Name: "order",
			Repo: orders,
			Sort: query.SortSpec{
				Fields: map[string]string{
					"orderNumber": "order_number",
					"totalAmount": "total_amount",
					"createdAt":   "created_at",
				},
				Default: "createdAt",
			},
		},
		customers: customers,
	}
}

func (s *OrderService) Create(ctx context.Context, tenantID int64, in CreateOrderInput) (*models.Order, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	num, err := name("orderNumber", resource.TrimKey(in.OrderNumber))
	if err != nil {
		return nil, err
	}
	if in.CustomerID != nil {
		if err := refID("customerId", *in.CustomerID); err != nil {
			return nil, err
		}
	}
	if err := amount("totalAmount", in.TotalAmount); err != nil {
		return nil, err
	}

	if _, err := resource.ResolveOptional(ctx, s.customers, "customer", tenantID, in.CustomerID); err != nil {
		return nil, err
	}
	if err := s.engine.EnsureUnique(ctx, tenantID, orderNumberKey, num, 0); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("order_number", num).
		Set("customer_id", in.CustomerID).
		Set("total_amount", in.TotalAmount)
	return s.engine.Create(ctx, tenantID, v, &orderNumberKey)
}

func (s *OrderService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.Order, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		id("customerId", "customer_id").
		day("date", "created_at").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *OrderService) Get(ctx context.Context, tenantID, id int64) (*models.Order, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *OrderService) Update(ctx context.Context, tenantID, id int64, in UpdateOrderInput) (*models.Order, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	num, numSet, err := patchedName("orderNumber", in.OrderNumber)
	if err != nil {
		return nil, err
	}
	customerID, customerSet := in.CustomerID.Value()
	if customerSet {
		if err := refID("customerId", customerID); err != nil {
			return nil, err
		}
	}
	total, ok, err := notNull("totalAmount", in.TotalAmount)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := amount("totalAmount", total); err != nil {
			return nil, err
		}
		v = v.Set("total_amount", total)
	}

	switch {
	case customerSet:
		if _, err := resource.Resolve(ctx, s.customers, "customer", tenantID, customerID); err != nil {
			return nil, err
		}
		v = v.Set("customer_id", customerID)
	case in.CustomerID.IsNull():
		v = v.Set("customer_id", nil)
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if numSet && num != cur.OrderNumber {
		if !strings.EqualFold(num, cur.OrderNumber) {
			if err := s.engine.EnsureUnique(ctx, tenantID, orderNumberKey, num, id); err != nil {
				return nil, err
			}
		}
		v = v.Set("order_number", num)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &orderNumberKey)
}

func (s *OrderService) Remove(ctx context.Context, tenantID, id int64) (*models.Order, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

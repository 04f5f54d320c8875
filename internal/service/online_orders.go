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
	"github.com/shopspring/decimal"
)

type CreateOnlineOrderInput struct {
	StoreID       int64           `json:"storeId"`
	CustomerID    int64           `json:"customerId"`
	OrderID       *int64          `json:"orderId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus string          `json:"paymentStatus"`
	Notes         string          `json:"notes"`
}

type UpdateOnlineOrderInput struct {
	StoreID       patch.Field[int64]           `json:"storeId"`
	CustomerID    patch.Field[int64]           `json:"customerId"`
	OrderID       patch.Field[int64]           `json:"orderId"`
	TotalAmount   patch.Field[decimal.Decimal] `json:"totalAmount"`
	PaymentStatus patch.Field[string]          `json:"paymentStatus"`
	Notes         patch.Field[string]          `json:"notes"`
}

// OnlineOrderService manages orders placed through online stores. Payment
// status is tracked separately from the record lifecycle.
type OnlineOrderService struct {
	engine    *resource.Engine[*models.OnlineOrder]
	stores    resource.Repository[*models.OnlineStore]
	customers resource.Repository[*models.Customer]
	orders    resource.Repository[*models.Order]
}

func NewOnlineOrderService(
	onlineOrders resource.Repository[*models.OnlineOrder],
	stores resource.Repository[*models.OnlineStore],
	customers resource.Repository[*models.Customer],
	orders resource.Repository[*models.Order],
) *OnlineOrderService {
	return &OnlineOrderService{
		engine: &resource.Engine[*models.OnlineOrder]{
			Name: "online order",
			Repo: onlineOrders,
			Sort: query.SortSpec{
				Fields: map[string]string{
					"totalAmount": "total_amount",
					"createdAt":   "created_at",
					"updatedAt":   "updated_at",
				},
				Default: "createdAt",
			},
		},
		stores:    stores,
		customers: customers,
		orders:    orders,
	}
}

func paymentStatus(s string) (models.PaymentStatus, error) {
	ps, err := models.ParsePaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", apperr.InvalidField("paymentStatus", "%s", err.Error())
	}
	return ps, nil
}

func (s *OnlineOrderService) Create(ctx context.Context, tenantID int64, in CreateOnlineOrderInput) (*models.OnlineOrder, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := refID("storeId", in.StoreID); err != nil {
		return nil, err
	}
	if err := refID("customerId", in.CustomerID); err != nil {
		return nil, err
	}
	if in.OrderID != nil {
		if err := refID("orderId", *in.OrderID); err != nil {
			return nil, err
		}
	}
	if err := amount("totalAmount", in.TotalAmount); err != nil {
		return nil, err
	}
	ps := models.PaymentPending
	if in.PaymentStatus != "" {
		var err error
		if ps, err = paymentStatus(in.PaymentStatus); err != nil {
			return nil, err
		}
	}

	if _, err := resource.Resolve(ctx, s.stores, "online store", tenantID, in.StoreID); err != nil {
		return nil, err
	}
	if _, err := resource.Resolve(ctx, s.customers, "customer", tenantID, in.CustomerID); err != nil {
		return nil, err
	}
	if _, err := resource.ResolveOptional(ctx, s.orders, "order", tenantID, in.OrderID); err != nil {
		return nil, err
	}

	v := store.Values{}.
		Set("store_id", in.StoreID).
		Set("customer_id", in.CustomerID).
		Set("order_id", in.OrderID).
		Set("total_amount", in.TotalAmount).
		Set("payment_status", ps).
		Set("notes", strings.TrimSpace(in.Notes))
	return s.engine.Create(ctx, tenantID, v, nil)
}

func (s *OnlineOrderService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.OnlineOrder, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		id("storeId", "store_id").
		id("customerId", "customer_id").
		eq("paymentStatus", "payment_status", func(s string) (string, error) {
			ps, err := paymentStatus(s)
			return string(ps), err
		}).
		day("date", "created_at").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *OnlineOrderService) Get(ctx context.Context, tenantID, id int64) (*models.OnlineOrder, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *OnlineOrderService) Update(ctx context.Context, tenantID, id int64, in UpdateOnlineOrderInput) (*models.OnlineOrder, error) {
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
	customerID, customerSet, err := notNull("customerId", in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customerSet {
		if err := refID("customerId", customerID); err != nil {
			return nil, err
		}
	}
	orderID, orderSet := in.OrderID.Value()
	if orderSet {
		if err := refID("orderId", orderID); err != nil {
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
	raw, ok, err := notNull("paymentStatus", in.PaymentStatus)
	if err != nil {
		return nil, err
	}
	if ok {
		ps, err := paymentStatus(raw)
		if err != nil {
			return nil, err
		}
		v = v.Set("payment_status", ps)
	}
	notes, ok, err := notNull("notes", in.Notes)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("notes", strings.TrimSpace(notes))
	}

	if storeSet {
		if _, err := resource.Resolve(ctx, s.stores, "online store", tenantID, storeID); err != nil {
			return nil, err
		}
		v = v.Set("store_id", storeID)
	}
	if customerSet {
		if _, err := resource.Resolve(ctx, s.customers, "customer", tenantID, customerID); err != nil {
			return nil, err
		}
		v = v.Set("customer_id", customerID)
	}
	switch {
	case orderSet:
		if _, err := resource.Resolve(ctx, s.orders, "order", tenantID, orderID); err != nil {
			return nil, err
		}
		v = v.Set("order_id", orderID)
	case in.OrderID.IsNull():
		v = v.Set("order_id", nil)
	}

	if _, err := s.engine.LoadActive(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.engine.Apply(ctx, tenantID, id, v, nil)
}

func (s *OnlineOrderService) Remove(ctx context.Context, tenantID, id int64) (*models.OnlineOrder, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

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

const maxCodeLen = 50

var planCodeKey = resource.Key{Field: "code", Column: "code"}

type CreateSubscriptionPlanInput struct {
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Price           *decimal.Decimal `json:"price"`
	Currency        string           `json:"currency"`
	BillingInterval string           `json:"billingInterval"`
	TrialDays       int              `json:"trialDays"`
}

type UpdateSubscriptionPlanInput struct {
	Code            patch.Field[string]          `json:"code"`
	Name            patch.Field[string]          `json:"name"`
	Price           patch.Field[decimal.Decimal] `json:"price"`
	Currency        patch.Field[string]          `json:"currency"`
	BillingInterval patch.Field[string]          `json:"billingInterval"`
	TrialDays       patch.Field[int]             `json:"trialDays"`
}

type SubscriptionPlanService struct {
	engine *resource.Engine[*models.SubscriptionPlan]
}

func NewSubscriptionPlanService(plans resource.Repository[*models.SubscriptionPlan]) *SubscriptionPlanService {
	return &SubscriptionPlanService{engine: &resource.Engine[*models.SubscriptionPlan]{
		Name: "subscription plan",
		Repo: plans,
		Sort: query.SortSpec{
			Fields: map[string]string{
				"name":      "name",
				"price":     "price",
				"createdAt": "created_at",
				"updatedAt": "updated_at",
			},
			Default: "updatedAt",
		},
	}}
}

func planCode(s string) (string, error) {
	s = resource.FoldKey(s)
	if s == "" {
		return "", apperr.InvalidField("code", "code is required")
	}
	if len(s) > maxCodeLen {
		return "", apperr.InvalidField("code", "code must be at most %d characters", maxCodeLen)
	}
	return s, nil
}

func billingInterval(s string) (models.BillingInterval, error) {
	bi, err := models.ParseBillingInterval(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", apperr.InvalidField("billingInterval", "%s", err.Error())
	}
	return bi, nil
}

func trialDays(n int) error {
	if n < 0 {
		return apperr.InvalidField("trialDays", "trialDays must not be negative")
	}
	return nil
}

func (s *SubscriptionPlanService) Create(ctx context.Context, tenantID int64, in CreateSubscriptionPlanInput) (*models.SubscriptionPlan, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	code, err := planCode(in.Code)
	if err != nil {
		return nil, err
	}
	n, err := name("name", in.Name)
	if err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, apperr.InvalidField("price", "price is required")
	}
	if err := amount("price", *in.Price); err != nil {
		return nil, err
	}
	cur, err := currency(in.Currency)
	if err != nil {
		return nil, err
	}
	bi, err := billingInterval(in.BillingInterval)
	if err != nil {
		return nil, err
	}
	if err := trialDays(in.TrialDays); err != nil {
		return nil, err
	}

	if err := s.engine.EnsureUnique(ctx, tenantID, planCodeKey, code, 0); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("code", code).
		Set("name", n).
		Set("price", *in.Price).
		Set("currency", cur).
		Set("billing_interval", bi).
		Set("trial_days", in.TrialDays)
	return s.engine.Create(ctx, tenantID, v, &planCodeKey)
}

func (s *SubscriptionPlanService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.SubscriptionPlan, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		contains("name", "name").
		eq("billingInterval", "billing_interval", func(s string) (string, error) {
			bi, err := billingInterval(s)
			return string(bi), err
		}).
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *SubscriptionPlanService) Get(ctx context.Context, tenantID, id int64) (*models.SubscriptionPlan, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *SubscriptionPlanService) Update(ctx context.Context, tenantID, id int64, in UpdateSubscriptionPlanInput) (*models.SubscriptionPlan, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	raw, codeSet, err := notNull("code", in.Code)
	if err != nil {
		return nil, err
	}
	var code string
	if codeSet {
		if code, err = planCode(raw); err != nil {
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
	price, ok, err := notNull("price", in.Price)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := amount("price", price); err != nil {
			return nil, err
		}
		v = v.Set("price", price)
	}
	rawCur, ok, err := notNull("currency", in.Currency)
	if err != nil {
		return nil, err
	}
	if ok {
		c, err := currency(rawCur)
		if err != nil {
			return nil, err
		}
		v = v.Set("currency", c)
	}
	rawBI, ok, err := notNull("billingInterval", in.BillingInterval)
	if err != nil {
		return nil, err
	}
	if ok {
		bi, err := billingInterval(rawBI)
		if err != nil {
			return nil, err
		}
		v = v.Set("billing_interval", bi)
	}
	days, ok, err := notNull("trialDays", in.TrialDays)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := trialDays(days); err != nil {
			return nil, err
		}
		v = v.Set("trial_days", days)
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if codeSet && code != cur.Code {
		if err := s.engine.EnsureUnique(ctx, tenantID, planCodeKey, code, id); err != nil {
			return nil, err
		}
		v = v.Set("code", code)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &planCodeKey)
}

func (s *SubscriptionPlanService) Remove(ctx context.Context, tenantID, id int64) (*models.SubscriptionPlan, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

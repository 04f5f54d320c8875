package service

import (
	"context"
	"net/url"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/kiranshivaraju/backoffice/pkg/patch"
)

type CreateMerchantSubscriptionInput struct {
	PlanID    int64   `json:"planId"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
	AutoRenew bool    `json:"autoRenew"`
}

type UpdateMerchantSubscriptionInput struct {
	PlanID    patch.Field[int64]  `json:"planId"`
	StartDate patch.Field[string] `json:"startDate"`
	EndDate   patch.Field[string] `json:"endDate"`
	AutoRenew patch.Field[bool]   `json:"autoRenew"`
}

// MerchantSubscriptionService enrols the merchant in one of its plans.
type MerchantSubscriptionService struct {
	engine *resource.Engine[*models.MerchantSubscription]
	plans  resource.Repository[*models.SubscriptionPlan]
}

func NewMerchantSubscriptionService(subs resource.Repository[*models.MerchantSubscription], plans resource.Repository[*models.SubscriptionPlan]) *MerchantSubscriptionService {
	return &MerchantSubscriptionService{
		engine: &resource.Engine[*models.MerchantSubscription]{
			Name: "merchant subscription",
			Repo: subs,
			Sort: query.SortSpec{
				Fields: map[string]string{
					"startDate": "start_date",
					"createdAt": "created_at",
					"updatedAt": "updated_at",
				},
				Default: "updatedAt",
			},
		},
		plans: plans,
	}
}

func dateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperr.InvalidField("endDate", "endDate must not be before startDate")
	}
	return nil
}

func (s *MerchantSubscriptionService) Create(ctx context.Context, tenantID int64, in CreateMerchantSubscriptionInput) (*models.MerchantSubscription, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := refID("planId", in.PlanID); err != nil {
		return nil, err
	}
	start, err := date("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if in.EndDate != nil {
		d, err := date("endDate", *in.EndDate)
		if err != nil {
			return nil, err
		}
		end = &d
	}
	if err := dateRange(start, end); err != nil {
		return nil, err
	}

	if _, err := resource.Resolve(ctx, s.plans, "subscription plan", tenantID, in.PlanID); err != nil {
		return nil, err
	}
	v := store.Values{}.
		Set("plan_id", in.PlanID).
		Set("start_date", start).
		Set("end_date", end).
		Set("auto_renew", in.AutoRenew)
	return s.engine.Create(ctx, tenantID, v, nil)
}

func (s *MerchantSubscriptionService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.MerchantSubscription, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		id("planId", "plan_id").
		date("startDate", "start_date").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *MerchantSubscriptionService) Get(ctx context.Context, tenantID, id int64) (*models.MerchantSubscription, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *MerchantSubscriptionService) Update(ctx context.Context, tenantID, id int64, in UpdateMerchantSubscriptionInput) (*models.MerchantSubscription, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	planID, planSet, err := notNull("planId", in.PlanID)
	if err != nil {
		return nil, err
	}
	if planSet {
		if err := refID("planId", planID); err != nil {
			return nil, err
		}
	}
	rawStart, startSet, err := notNull("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	var start time.Time
	if startSet {
		if start, err = date("startDate", rawStart); err != nil {
			return nil, err
		}
		v = v.Set("start_date", start)
	}
	var end *time.Time
	if raw, ok := in.EndDate.Value(); ok {
		d, err := date("endDate", raw)
		if err != nil {
			return nil, err
		}
		end = &d
		v = v.Set("end_date", end)
	} else if in.EndDate.IsNull() {
		v = v.Set("end_date", nil)
	}
	if renew, ok, err := notNull("autoRenew", in.AutoRenew); err != nil {
		return nil, err
	} else if ok {
		v = v.Set("auto_renew", renew)
	}

	if planSet {
		if _, err := resource.Resolve(ctx, s.plans, "subscription plan", tenantID, planID); err != nil {
			return nil, err
		}
		v = v.Set("plan_id", planID)
	}
	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	// The range is checked against whichever bound was not sent.
	if !startSet {
		start = cur.StartDate
	}
	if !in.EndDate.Provided() {
		end = cur.EndDate
	}
	if err := dateRange(start, end); err != nil {
		return nil, err
	}
	return s.engine.Apply(ctx, tenantID, id, v, nil)
}

func (s *MerchantSubscriptionService) Remove(ctx context.Context, tenantID, id int64) (*models.MerchantSubscription, error) {
	return s.engine.Remove(ctx, tenantID, id)
}

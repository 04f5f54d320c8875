package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BillingInterval string

const (
	BillingMonthly BillingInterval = "monthly"
	BillingYearly  BillingInterval = "yearly"
)

func ParseBillingInterval(s string) (BillingInterval, error) {
	switch BillingInterval(s) {
	case BillingMonthly, BillingYearly:
		return BillingInterval(s), nil
	default:
		return "", fmt.Errorf("billingInterval must be monthly or yearly")
	}
}

// SubscriptionPlan is a priced plan. Code is unique per merchant and stored
// lower-cased.
type SubscriptionPlan struct {
	ID              int64           `db:"id"               json:"id"`
	MerchantID      int64           `db:"merchant_id"      json:"merchantId"`
	Code            string          `db:"code"             json:"code"`
	Name            string          `db:"name"             json:"name"`
	Price           decimal.Decimal `db:"price"            json:"price"`
	Currency        string          `db:"currency"         json:"currency"`
	BillingInterval BillingInterval `db:"billing_interval" json:"billingInterval"`
	TrialDays       int             `db:"trial_days"       json:"trialDays"`
	Status          Status          `db:"status"           json:"status"`
	CreatedAt       time.Time       `db:"created_at"       json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at"       json:"updatedAt"`
}

func (p *SubscriptionPlan) EntityID() int64         { return p.ID }
func (p *SubscriptionPlan) LifecycleStatus() Status { return p.Status }

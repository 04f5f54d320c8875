package models

import "time"

// MerchantSubscription is a merchant's enrolment in one of its subscription
// plans.
type MerchantSubscription struct {
	ID         int64      `db:"id"          json:"id"`
	MerchantID int64      `db:"merchant_id" json:"merchantId"`
	PlanID     int64      `db:"plan_id"     json:"planId"`
	PlanName   string     `db:"plan_name"   json:"planName"`
	PlanCode   string     `db:"plan_code"   json:"planCode"`
	StartDate  time.Time  `db:"start_date"  json:"startDate"`
	EndDate    *time.Time `db:"end_date"    json:"endDate,omitempty"`
	AutoRenew  bool       `db:"auto_renew"  json:"autoRenew"`
	Status     Status     `db:"status"      json:"status"`
	CreatedAt  time.Time  `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updatedAt"`
}

func (s *MerchantSubscription) EntityID() int64         { return s.ID }
func (s *MerchantSubscription) LifecycleStatus() Status { return s.Status }

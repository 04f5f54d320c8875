package models

import "time"

type Customer struct {
	ID         int64     `db:"id"          json:"id"`
	MerchantID int64     `db:"merchant_id" json:"merchantId"`
	Name       string    `db:"name"        json:"name"`
	Email      string    `db:"email"       json:"email"`
	Phone      string    `db:"phone"       json:"phone"`
	Status     Status    `db:"status"      json:"status"`
	CreatedAt  time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updatedAt"`
}

func (c *Customer) EntityID() int64         { return c.ID }
func (c *Customer) LifecycleStatus() Status { return c.Status }

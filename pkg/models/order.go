package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a point-of-sale order. Online orders may link to one.
type Order struct {
	ID           int64           `db:"id"            json:"id"`
	MerchantID   int64           `db:"merchant_id"   json:"merchantId"`
	OrderNumber  string          `db:"order_number"  json:"orderNumber"`
	CustomerID   *int64          `db:"customer_id"   json:"customerId"`
	CustomerName *string         `db:"customer_name" json:"customerName,omitempty"`
	TotalAmount  decimal.Decimal `db:"total_amount"  json:"totalAmount"`
	Status       Status          `db:"status"        json:"status"`
	CreatedAt    time.Time       `db:"created_at"    json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updatedAt"`
}

func (o *Order) EntityID() int64         { return o.ID }
func (o *Order) LifecycleStatus() Status { return o.Status }

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is independent of the lifecycle Status of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("paymentStatus must be one of pending, paid, failed, refunded")
	}
}

// OnlineOrder is an order placed through an online store. OrderID optionally
// links it to a POS order.
type OnlineOrder struct {
	ID             int64           `db:"id"              json:"id"`
	MerchantID     int64           `db:"merchant_id"     json:"merchantId"`
	StoreID        int64           `db:"store_id"        json:"storeId"`
	StoreName      string          `db:"store_name"      json:"storeName"`
	StoreSubdomain string          `db:"store_subdomain" json:"storeSubdomain"`
	CustomerID     int64           `db:"customer_id"     json:"customerId"`
	CustomerName   string          `db:"customer_name"   json:"customerName"`
	OrderID        *int64          `db:"order_id"        json:"orderId"`
	TotalAmount    decimal.Decimal `db:"total_amount"    json:"totalAmount"`
	PaymentStatus  PaymentStatus   `db:"payment_status"  json:"paymentStatus"`
	Notes          string          `db:"notes"           json:"notes"`
	Status         Status          `db:"status"          json:"status"`
	CreatedAt      time.Time       `db:"created_at"      json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updatedAt"`
}

func (o *OnlineOrder) EntityID() int64         { return o.ID }
func (o *OnlineOrder) LifecycleStatus() Status { return o.Status }

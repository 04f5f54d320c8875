package models

import "time"

// OnlineStore is a merchant's storefront. Subdomain is unique per merchant
// among non-deleted stores and is stored lower-cased.
type OnlineStore struct {
	ID          int64     `db:"id"          json:"id"`
	MerchantID  int64     `db:"merchant_id" json:"merchantId"`
	Name        string    `db:"name"        json:"name"`
	Subdomain   string    `db:"subdomain"   json:"subdomain"`
	Description string    `db:"description" json:"description"`
	IsOpen      bool      `db:"is_open"     json:"isOpen"`
	Status      Status    `db:"status"      json:"status"`
	CreatedAt   time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updatedAt"`
}

func (s *OnlineStore) EntityID() int64         { return s.ID }
func (s *OnlineStore) LifecycleStatus() Status { return s.Status }

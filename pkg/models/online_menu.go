package models

import "time"

// OnlineMenu belongs to an OnlineStore and reaches its merchant through it.
type OnlineMenu struct {
	ID          int64     `db:"id"           json:"id"`
	StoreID     int64     `db:"store_id"     json:"storeId"`
	StoreName   string    `db:"store_name"   json:"storeName"`
	Name        string    `db:"name"         json:"name"`
	Description string    `db:"description"  json:"description"`
	IsAvailable bool      `db:"is_available" json:"isAvailable"`
	SortOrder   int       `db:"sort_order"   json:"sortOrder"`
	Status      Status    `db:"status"       json:"status"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}

func (m *OnlineMenu) EntityID() int64         { return m.ID }
func (m *OnlineMenu) LifecycleStatus() Status { return m.Status }

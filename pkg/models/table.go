package models

import "time"

// Table is a dining table. TableNumber is unique per merchant among
// non-deleted tables, compared case-insensitively.
type Table struct {
	ID          int64     `db:"id"           json:"id"`
	MerchantID  int64     `db:"merchant_id"  json:"merchantId"`
	TableNumber string    `db:"table_number" json:"tableNumber"`
	Capacity    int       `db:"capacity"     json:"capacity"`
	Location    string    `db:"location"     json:"location"`
	Status      Status    `db:"status"       json:"status"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}

func (t *Table) EntityID() int64         { return t.ID }
func (t *Table) LifecycleStatus() Status { return t.Status }

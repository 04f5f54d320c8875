package models

import "time"

// Merchant is the tenant. Every other entity belongs to exactly one merchant
// for its whole lifetime.
type Merchant struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

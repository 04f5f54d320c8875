package models

import "time"

// Application is an API client of a merchant. The raw key is shown once at
// creation; only the bcrypt hash and its prefix are stored. Deleting an
// application revokes its key.
type Application struct {
	ID          int64      `db:"id"           json:"id"`
	MerchantID  int64      `db:"merchant_id"  json:"merchantId"`
	Name        string     `db:"name"         json:"name"`
	Description string     `db:"description"  json:"description"`
	KeyHash     string     `db:"key_hash"     json:"-"`
	KeyPrefix   string     `db:"key_prefix"   json:"keyPrefix"`
	Scopes      []string   `db:"scopes"       json:"scopes"`
	LastUsedAt  *time.Time `db:"last_used_at" json:"lastUsedAt,omitempty"`
	Status      Status     `db:"status"       json:"status"`
	CreatedAt   time.Time  `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updatedAt"`

	// Key is the raw API key. Only set in the response that created it.
	Key string `db:"-" json:"key,omitempty"`
}

func (a *Application) EntityID() int64         { return a.ID }
func (a *Application) LifecycleStatus() Status { return a.Status }

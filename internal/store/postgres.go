package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/backoffice/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5 and exposes one
// tenant-scoped table per resource.
type PostgresStore struct {
	pool *pgxpool.Pool

	OnlineStores          *Table[models.OnlineStore]
	OnlineMenus           *Table[models.OnlineMenu]
	OnlineOrders          *Table[models.OnlineOrder]
	Tables                *Table[models.Table]
	Customers             *Table[models.Customer]
	Orders                *Table[models.Order]
	SubscriptionPlans     *Table[models.SubscriptionPlan]
	Applications          *Table[models.Application]
	MerchantSubscriptions *Table[models.MerchantSubscription]
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:                  pool,
		OnlineStores:          NewTable[models.OnlineStore](pool, onlineStoreSchema),
		OnlineMenus:           NewTable[models.OnlineMenu](pool, onlineMenuSchema),
		OnlineOrders:          NewTable[models.OnlineOrder](pool, onlineOrderSchema),
		Tables:                NewTable[models.Table](pool, tableSchema),
		Customers:             NewTable[models.Customer](pool, customerSchema),
		Orders:                NewTable[models.Order](pool, orderSchema),
		SubscriptionPlans:     NewTable[models.SubscriptionPlan](pool, subscriptionPlanSchema),
		Applications:          NewTable[models.Application](pool, applicationSchema),
		MerchantSubscriptions: NewTable[models.MerchantSubscription](pool, merchantSubscriptionSchema),
	}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Merchants ---

// CreateMerchant registers a tenant. Merchants are provisioned outside the
// HTTP API.
func (s *PostgresStore) CreateMerchant(ctx context.Context, name string) (*models.Merchant, error) {
	rows, err := s.pool.Query(ctx,
		`INSERT INTO merchants (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, name)
	if err != nil {
		return nil, fmt.Errorf("create merchant: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Merchant])
	if err != nil {
		return nil, fmt.Errorf("create merchant: %w", err)
	}
	return m, nil
}

// --- Application keys ---

// GetApplicationsByKeyPrefix returns the active applications whose key starts
// with prefix, across all merchants. Callers must bcrypt-compare the full key.
func (s *PostgresStore) GetApplicationsByKeyPrefix(ctx context.Context, prefix string) ([]*models.Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, merchant_id, name, description, key_hash, key_prefix, scopes, last_used_at, status, created_at, updated_at
		 FROM applications WHERE key_prefix = $1 AND status = $2`, prefix, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("get applications by key prefix: %w", err)
	}
	apps, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.Application])
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) UpdateApplicationLastUsed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE applications SET last_used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update application last used: %w", err)
	}
	return nil
}

package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("backoffice_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newMerchant(t *testing.T, s *store.PostgresStore, name string) int64 {
	t.Helper()
	m, err := s.CreateMerchant(context.Background(), name)
	require.NoError(t, err)
	return m.ID
}

func listAll(status string) query.List {
	return query.List{
		Status: status,
		Sort:   query.Sort{Column: "created_at", Desc: true},
		Page:   query.Page{Number: 1, Limit: 100},
	}
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestTable_TenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")
	b := newMerchant(t, s, "B")

	id, err := s.Customers.Insert(ctx, a, store.Values{}.
		Set("name", "Ann").
		Set("email", "ann@example.com"))
	require.NoError(t, err)

	got, err := s.Customers.Find(ctx, a, id)
	require.NoError(t, err)
	assert.Equal(t, a, got.MerchantID)
	assert.Equal(t, models.StatusActive, got.Status)

	_, err = s.Customers.Find(ctx, b, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Customers.Update(ctx, b, id, store.Values{}.Set("name", "Mallory"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Customers.Transition(ctx, b, id, models.StatusActive, models.StatusDeleted)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rows, total, err := s.Customers.List(ctx, b, listAll(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 0, total)
}

func TestTable_PartialUniqueIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")
	b := newMerchant(t, s, "B")

	id, err := s.OnlineStores.Insert(ctx, a, store.Values{}.Set("name", "Cafe").Set("subdomain", "cafe-x"))
	require.NoError(t, err)

	_, err = s.OnlineStores.Insert(ctx, a, store.Values{}.Set("name", "Other").Set("subdomain", "CAFE-X"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	// Another merchant may use the same key.
	_, err = s.OnlineStores.Insert(ctx, b, store.Values{}.Set("name", "Cafe").Set("subdomain", "cafe-x"))
	require.NoError(t, err)

	exists, err := s.OnlineStores.ExistsActive(ctx, a, "subdomain", "Cafe-X", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.OnlineStores.ExistsActive(ctx, a, "subdomain", "cafe-x", id)
	require.NoError(t, err)
	assert.False(t, exists)

	// Soft delete frees the key.
	require.NoError(t, s.OnlineStores.Transition(ctx, a, id, models.StatusActive, models.StatusDeleted))
	exists, err = s.OnlineStores.ExistsActive(ctx, a, "subdomain", "cafe-x", 0)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.OnlineStores.Insert(ctx, a, store.Values{}.Set("name", "Cafe 2").Set("subdomain", "cafe-x"))
	require.NoError(t, err)

	// A second transition from active fails.
	err = s.OnlineStores.Transition(ctx, a, id, models.StatusActive, models.StatusDeleted)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleted rows are not update targets.
	err = s.OnlineStores.Update(ctx, a, id, store.Values{}.Set("name", "Revived"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.OnlineStores.Find(ctx, a, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, deleted.Status)
}

func TestTable_TransitiveTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")
	b := newMerchant(t, s, "B")

	storeID, err := s.OnlineStores.Insert(ctx, a, store.Values{}.Set("name", "Cafe").Set("subdomain", "cafe"))
	require.NoError(t, err)

	menuID, err := s.OnlineMenus.Insert(ctx, a, store.Values{}.
		Set("store_id", storeID).
		Set("name", "Breakfast").
		Set("sort_order", 2))
	require.NoError(t, err)

	menu, err := s.OnlineMenus.Find(ctx, a, menuID)
	require.NoError(t, err)
	assert.Equal(t, "Cafe", menu.StoreName)
	assert.Equal(t, 2, menu.SortOrder)

	_, err = s.OnlineMenus.Find(ctx, b, menuID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.OnlineMenus.Update(ctx, a, menuID, store.Values{}.Set("is_available", false)))
	assert.ErrorIs(t, s.OnlineMenus.Update(ctx, b, menuID, store.Values{}.Set("name", "x")), store.ErrNotFound)

	assert.ErrorIs(t, s.OnlineMenus.Delete(ctx, b, menuID), store.ErrNotFound)
	require.NoError(t, s.OnlineMenus.Delete(ctx, a, menuID))

	_, err = s.OnlineMenus.Find(ctx, a, menuID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTable_ListFiltersAndPagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")

	for _, n := range []string{"T1", "T2", "T3", "T4", "T5"} {
		_, err := s.Tables.Insert(ctx, a, store.Values{}.
			Set("table_number", n).
			Set("capacity", 4).
			Set("location", "Patio_50%"))
		require.NoError(t, err)
	}
	_, err := s.Tables.Insert(ctx, a, store.Values{}.
		Set("table_number", "T6").
		Set("capacity", 8).
		Set("location", "Main hall"))
	require.NoError(t, err)

	q := query.List{
		Sort: query.Sort{Column: "table_number"},
		Page: query.Page{Number: 2, Limit: 2},
	}
	rows, total, err := s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "T3", rows[0].TableNumber)
	assert.Equal(t, "T4", rows[1].TableNumber)

	q.Page = query.Page{Number: 1, Limit: 10}
	q.Filters = []query.Cond{query.Contains("location", "patio_50%")}
	_, total, err = s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	// Wildcards in user input match literally.
	q.Filters = []query.Cond{query.Contains("location", "%")}
	_, total, err = s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	q.Filters = []query.Cond{query.Gte("capacity", 5)}
	rows, total, err = s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "T6", rows[0].TableNumber)

	require.NoError(t, s.Tables.Transition(ctx, a, rows[0].ID, models.StatusActive, models.StatusDeleted))

	q.Filters = nil
	_, total, err = s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	q.Status = string(models.StatusDeleted)
	rows, total, err = s.Tables.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "T6", rows[0].TableNumber)
}

func TestTable_EmbeddedAssociations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")

	storeID, err := s.OnlineStores.Insert(ctx, a, store.Values{}.Set("name", "Cafe X").Set("subdomain", "cafe-x"))
	require.NoError(t, err)
	custID, err := s.Customers.Insert(ctx, a, store.Values{}.Set("name", "Ann").Set("email", "ann@example.com"))
	require.NoError(t, err)

	orderID, err := s.Orders.Insert(ctx, a, store.Values{}.
		Set("order_number", "POS-1").
		Set("total_amount", decimal.RequireFromString("12.50")))
	require.NoError(t, err)
	order, err := s.Orders.Find(ctx, a, orderID)
	require.NoError(t, err)
	assert.Nil(t, order.CustomerID)
	assert.Nil(t, order.CustomerName)
	assert.True(t, decimal.RequireFromString("12.5").Equal(order.TotalAmount))

	ooID, err := s.OnlineOrders.Insert(ctx, a, store.Values{}.
		Set("store_id", storeID).
		Set("customer_id", custID).
		Set("order_id", orderID).
		Set("total_amount", decimal.RequireFromString("12.50")))
	require.NoError(t, err)

	oo, err := s.OnlineOrders.Find(ctx, a, ooID)
	require.NoError(t, err)
	assert.Equal(t, "Cafe X", oo.StoreName)
	assert.Equal(t, "cafe-x", oo.StoreSubdomain)
	assert.Equal(t, "Ann", oo.CustomerName)
	require.NotNil(t, oo.OrderID)
	assert.Equal(t, orderID, *oo.OrderID)
	assert.Equal(t, models.PaymentPending, oo.PaymentStatus)

	today := time.Now().UTC().Format("2006-01-02")
	day, err := query.ParseDay("date", today)
	require.NoError(t, err)
	q := listAll("")
	q.Filters = query.Day("created_at", day)
	_, total, err := s.OnlineOrders.List(ctx, a, q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestApplications_KeyPrefix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	a := newMerchant(t, s, "A")

	id, err := s.Applications.Insert(ctx, a, store.Values{}.
		Set("name", "POS sync").
		Set("key_hash", "bcrypt-hash-here").
		Set("key_prefix", "mk_abcde").
		Set("scopes", []string{"admin"}))
	require.NoError(t, err)

	apps, err := s.GetApplicationsByKeyPrefix(ctx, "mk_abcde")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, id, apps[0].ID)
	assert.Equal(t, a, apps[0].MerchantID)
	assert.Equal(t, []string{"admin"}, apps[0].Scopes)
	assert.Nil(t, apps[0].LastUsedAt)

	require.NoError(t, s.UpdateApplicationLastUsed(ctx, id))
	app, err := s.Applications.Find(ctx, a, id)
	require.NoError(t, err)
	assert.NotNil(t, app.LastUsedAt)

	// Revoked keys no longer authenticate.
	require.NoError(t, s.Applications.Transition(ctx, a, id, models.StatusActive, models.StatusDeleted))
	apps, err = s.GetApplicationsByKeyPrefix(ctx, "mk_abcde")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

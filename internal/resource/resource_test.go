package resource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/internal/resource/resourcetest"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailKey = resource.Key{Field: "email", Column: "email"}

func newCustomers() (*resource.Engine[*models.Customer], *resourcetest.Repo[models.Customer]) {
	repo := resourcetest.New[models.Customer]("email")
	return &resource.Engine[*models.Customer]{
		Name: "customer",
		Repo: repo,
		Sort: query.SortSpec{
			Fields:  map[string]string{"name": "name", "createdAt": "created_at"},
			Default: "createdAt",
		},
	}, repo
}

func customer(name, email string) store.Values {
	return store.Values{}.Set("name", name).Set("email", email)
}

func TestEngine_RequiresTenant(t *testing.T) {
	e, repo := newCustomers()
	ctx := context.Background()

	_, err := e.Create(ctx, 0, customer("Ann", "ann@example.com"), &emailKey)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.Get(ctx, 0, 1)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, _, err = e.List(ctx, -1, query.Params{Page: 1, Limit: 10}, "", nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.Remove(ctx, 0, 1)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 0, repo.Len())
}

func TestEngine_TenantIsolation(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	c, err := e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.MerchantID)
	assert.Equal(t, models.StatusActive, c.Status)

	_, err = e.Get(ctx, 9, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.LoadActive(ctx, 9, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.Remove(ctx, 9, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rows, meta, err := e.List(ctx, 9, query.Params{Page: 1, Limit: 10}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 0, meta.Total)
}

func TestEngine_GetValidatesID(t *testing.T) {
	e, _ := newCustomers()
	_, err := e.Get(context.Background(), 7, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEngine_EnsureUnique(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	c, err := e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	require.NoError(t, err)

	err = e.EnsureUnique(ctx, 7, emailKey, "ANN@example.com", 0)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "merchant 7")

	assert.NoError(t, e.EnsureUnique(ctx, 9, emailKey, "ann@example.com", 0))
	assert.NoError(t, e.EnsureUnique(ctx, 7, emailKey, "ann@example.com", c.ID))
}

func TestEngine_CreateMapsDuplicateKeyToConflict(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	_, err := e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	require.NoError(t, err)

	// Skipping the pre-check still fails at the write.
	_, err = e.Create(ctx, 7, customer("Ann 2", "ann@example.com"), &emailKey)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), `"ann@example.com"`)
}

func TestEngine_Lifecycle(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	c, err := e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	require.NoError(t, err)

	removed, err := e.Remove(ctx, 7, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, removed.Status)

	_, err = e.Remove(ctx, 7, c.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.LoadActive(ctx, 7, c.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Still readable by id and through an explicit status filter.
	got, err := e.Get(ctx, 7, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, got.Status)

	rows, _, err := e.List(ctx, 7, query.Params{Page: 1, Limit: 10}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, _, err = e.List(ctx, 7, query.Params{Page: 1, Limit: 10}, "deleted", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// The key is free again.
	assert.NoError(t, e.EnsureUnique(ctx, 7, emailKey, "ann@example.com", 0))
	_, err = e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	assert.NoError(t, err)
}

func TestEngine_Apply(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	c, err := e.Create(ctx, 7, customer("Ann", "ann@example.com"), &emailKey)
	require.NoError(t, err)

	got, err := e.Apply(ctx, 7, c.ID, store.Values{}.Set("name", "Annie"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Annie", got.Name)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))

	same, err := e.Apply(ctx, 7, c.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt, same.UpdatedAt)

	_, err = e.Remove(ctx, 7, c.ID)
	require.NoError(t, err)
	_, err = e.Apply(ctx, 7, c.ID, store.Values{}.Set("name", "Zombie"), nil)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEngine_ListPaginationAndSort(t *testing.T) {
	e, _ := newCustomers()
	ctx := context.Background()

	for _, n := range []string{"c", "a", "b"} {
		_, err := e.Create(ctx, 7, customer(n, n+"@example.com"), &emailKey)
		require.NoError(t, err)
	}

	rows, meta, err := e.List(ctx, 7, query.Params{Page: 1, Limit: 2, SortBy: "name", SortOrder: "asc"}, "", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, "b", rows[1].Name)
	assert.Equal(t, query.Meta{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true}, meta)

	// Unknown sortBy falls back to createdAt DESC.
	rows, _, err = e.List(ctx, 7, query.Params{Page: 1, Limit: 10, SortBy: "password"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", rows[0].Name)

	_, _, err = e.List(ctx, 7, query.Params{Page: 0, Limit: 10}, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, _, err = e.List(ctx, 7, query.Params{Page: 1, Limit: 101}, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, _, err = e.List(ctx, 7, query.Params{Page: 1, Limit: 10}, "archived", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rows, meta, err = e.List(ctx, 7, query.Params{Page: 1, Limit: 10}, "", []query.Cond{query.Contains("name", "A")})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, meta.Total)
}

func TestEngine_StoreErrorsAreWrapped(t *testing.T) {
	e, repo := newCustomers()
	boom := errors.New("connection reset")
	repo.Err = boom

	_, err := e.Get(context.Background(), 7, 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestEngine_HardDelete(t *testing.T) {
	stores := resourcetest.New[models.OnlineStore]("subdomain")
	menus := resourcetest.New[models.OnlineMenu]()
	menus.TenantOf = func(m *models.OnlineMenu) int64 {
		s, err := stores.Find(context.Background(), 7, m.StoreID)
		if err != nil {
			return 0
		}
		return s.MerchantID
	}
	e := &resource.Engine[*models.OnlineMenu]{Name: "online menu", Repo: menus, Mode: resource.DeleteHard}
	ctx := context.Background()

	storeID, err := stores.Insert(ctx, 7, store.Values{}.Set("name", "Cafe").Set("subdomain", "cafe"))
	require.NoError(t, err)

	m, err := e.Create(ctx, 7, store.Values{}.Set("store_id", storeID).Set("name", "Lunch"), nil)
	require.NoError(t, err)

	_, err = e.Get(ctx, 9, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	removed, err := e.Remove(ctx, 7, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", removed.Name)
	assert.Equal(t, 0, menus.Len())

	_, err = e.Remove(ctx, 7, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolve(t *testing.T) {
	stores := resourcetest.New[models.OnlineStore]("subdomain")
	ctx := context.Background()

	id, err := stores.Insert(ctx, 7, store.Values{}.Set("name", "Cafe").Set("subdomain", "cafe"))
	require.NoError(t, err)

	s, err := resource.Resolve[*models.OnlineStore](ctx, stores, "online store", 7, id)
	require.NoError(t, err)
	assert.Equal(t, "cafe", s.Subdomain)

	_, err = resource.Resolve[*models.OnlineStore](ctx, stores, "online store", 9, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = resource.Resolve[*models.OnlineStore](ctx, stores, "online store", 7, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, stores.Transition(ctx, 7, id, models.StatusActive, models.StatusDeleted))
	_, err = resource.Resolve[*models.OnlineStore](ctx, stores, "online store", 7, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveOptional(t *testing.T) {
	stores := resourcetest.New[models.OnlineStore]()
	ctx := context.Background()

	s, err := resource.ResolveOptional[*models.OnlineStore](ctx, stores, "online store", 7, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	missing := int64(42)
	_, err = resource.ResolveOptional[*models.OnlineStore](ctx, stores, "online store", 7, &missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestKeyNormalizers(t *testing.T) {
	assert.Equal(t, "my-store", resource.FoldKey(" My-Store "))
	assert.Equal(t, resource.FoldKey("my-store"), resource.FoldKey(resource.FoldKey(" My-Store ")))
	assert.Equal(t, "Table 4", resource.TrimKey("  Table 4 "))
}

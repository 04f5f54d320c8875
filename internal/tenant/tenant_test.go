package tenant_test

import (
	"context"
	"testing"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/stretchr/testify/assert"
)

func TestRequire(t *testing.T) {
	assert.NoError(t, tenant.Require(7))
	assert.ErrorIs(t, tenant.Require(0), apperr.ErrUnauthorized)
	assert.ErrorIs(t, tenant.Require(-3), apperr.ErrUnauthorized)
}

func TestContextRoundtrip(t *testing.T) {
	ctx := tenant.WithID(context.Background(), 42)

	id, ok := tenant.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := tenant.FromContext(context.Background())
	assert.False(t, ok)

	_, ok = tenant.FromContext(tenant.WithID(context.Background(), 0))
	assert.False(t, ok)
}

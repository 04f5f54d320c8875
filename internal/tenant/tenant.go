// Package tenant carries the acting merchant id. The id is resolved by the
// authentication layer; the resource core only consumes it.
package tenant

import (
	"context"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
)

// ID identifies a merchant. Zero means no tenant was resolved.
type ID = int64

type contextKey struct{}

// WithID returns a copy of ctx carrying the merchant id.
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the merchant id stored by WithID.
func FromContext(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(contextKey{}).(ID)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// Require must be the first call of every scoped operation.
func Require(id ID) error {
	if id <= 0 {
		return apperr.ErrUnauthorized
	}
	return nil
}

package middleware

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/backoffice/internal/tenant"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	scopesKey    contextKey = "scopes"
)

// SetMerchantID stores the authenticated merchant for the resource layer.
func SetMerchantID(ctx context.Context, id int64) context.Context {
	return tenant.WithID(ctx, id)
}

func GetMerchantID(r *http.Request) (int64, bool) {
	return tenant.FromContext(r.Context())
}

// setPrincipal records who made the request: the application key prefix
// or the JWT subject. Rate limiting is keyed on it.
func setPrincipal(ctx context.Context, p string) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func getPrincipal(r *http.Request) (string, bool) {
	p, ok := r.Context().Value(principalKey).(string)
	return p, ok && p != ""
}

func setScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, scopesKey, scopes)
}

func getScopes(r *http.Request) []string {
	scopes, _ := r.Context().Value(scopesKey).([]string)
	return scopes
}

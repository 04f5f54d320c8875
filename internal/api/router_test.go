package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/api"
	"github.com/kiranshivaraju/backoffice/internal/api/handler"
	mw "github.com/kiranshivaraju/backoffice/internal/api/middleware"
	"github.com/kiranshivaraju/backoffice/internal/cache"
	"github.com/kiranshivaraju/backoffice/internal/metrics"
	"github.com/kiranshivaraju/backoffice/internal/resource/resourcetest"
	"github.com/kiranshivaraju/backoffice/internal/service"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "router-test-secret-0123456789abcdef"

// --- stub store backed by the applications repository ---

type stubStore struct {
	apps *resourcetest.Repo[models.Application]
}

func (s *stubStore) Ping(_ context.Context) error { return nil }
func (s *stubStore) GetApplicationsByKeyPrefix(_ context.Context, prefix string) ([]*models.Application, error) {
	var out []*models.Application
	for id := int64(1); ; id++ {
		a, ok := s.apps.Peek(id)
		if !ok {
			return out, nil
		}
		if a.KeyPrefix == prefix && a.Status == models.StatusActive {
			out = append(out, a)
		}
	}
}
func (s *stubStore) UpdateApplicationLastUsed(_ context.Context, _ int64) error { return nil }

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Ping(_ context.Context) error { return nil }
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, expiry time.Duration) (int64, time.Duration, error) {
	return 1, expiry, nil
}

// --- router tests ---

type testEnv struct {
	router http.Handler
	auth   *mw.Auth
	reg    *prometheus.Registry
}

func newTestEnv() *testEnv {
	appsRepo := resourcetest.New[models.Application]("name")
	stores := service.NewOnlineStoreService(resourcetest.New[models.OnlineStore]("subdomain"))
	apps := service.NewApplicationService(appsRepo, bcrypt.MinCost)

	auth := mw.NewAuth(&stubStore{apps: appsRepo}, testSecret, "backoffice")
	reg := prometheus.NewRegistry()

	router := api.NewRouter(api.Dependencies{
		Auth:           auth,
		RateLimit:      mw.NewRateLimit(&stubCache{}, 60),
		Metrics:        metrics.NewHTTP("backoffice", reg),
		RequestTimeout: 5 * time.Second,
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
		OnlineStores: handler.NewResource[*models.OnlineStore, service.CreateOnlineStoreInput, service.UpdateOnlineStoreInput]("Online store", stores).Routes(),
		Applications: handler.NewResource[*models.Application, service.CreateApplicationInput, service.UpdateApplicationInput]("Application", apps).Routes(),
	})
	return &testEnv{router: router, auth: auth, reg: reg}
}

func (e *testEnv) token(t *testing.T, merchantID int64, scopes ...string) string {
	t.Helper()
	tok, err := e.auth.SignToken(merchantID, "owner", scopes, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, token, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	env := newTestEnv()

	w, _ := env.do(t, "", "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	env := newTestEnv()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/online-stores"},
		{"GET", "/api/v1/online-stores"},
		{"GET", "/api/v1/online-menus/1"},
		{"PATCH", "/api/v1/online-orders/1"},
		{"DELETE", "/api/v1/tables/1"},
		{"GET", "/api/v1/customers"},
		{"GET", "/api/v1/orders"},
		{"GET", "/api/v1/subscription-plans"},
		{"GET", "/api/v1/merchant-subscriptions"},
		{"POST", "/api/v1/applications"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w, body := env.do(t, "", ep.method, ep.path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", body["error"])
		})
	}
}

func TestRouter_UnwiredResource_NotImplemented(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, env.token(t, 1), "GET", "/api/v1/customers", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_IMPLEMENTED", body["error"])
}

func TestRouter_ApplicationsRequireAdmin(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, env.token(t, 1, "read"), "GET", "/api/v1/applications", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["error"])

	w, _ = env.do(t, env.token(t, 1, "admin"), "GET", "/api/v1/applications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ApplicationKeyRoundTrip(t *testing.T) {
	env := newTestEnv()
	admin := env.token(t, 5, "admin")

	w, body := env.do(t, admin, "POST", "/api/v1/applications",
		map[string]any{"name": "POS terminal", "scopes": []string{"Read"}})
	require.Equal(t, http.StatusCreated, w.Code)
	data := body["data"].(map[string]any)
	rawKey, _ := data["key"].(string)
	require.NotEmpty(t, rawKey)
	assert.NotContains(t, data, "keyHash")

	// the issued key authenticates as the same merchant
	w, body = env.do(t, rawKey, "POST", "/api/v1/online-stores",
		map[string]any{"name": "Cafe X", "subdomain": "cafe-x"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(5), body["data"].(map[string]any)["merchantId"])
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))

	// but carries no admin scope
	w, _ = env.do(t, rawKey, "GET", "/api/v1/applications", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// and stops working once the application is removed
	id := int64(data["id"].(float64))
	w, _ = env.do(t, admin, "DELETE", "/api/v1/applications/"+jsonID(id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, rawKey, "GET", "/api/v1/online-stores", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, "", "GET", "/api/v1/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["error"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(t, "", "GET", "/api/v1/health", nil)

	w, _ := env.do(t, "", "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `backoffice_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

// Verify stubs satisfy the interfaces
var _ store.Store = (*stubStore)(nil)
var _ cache.Cache = (*stubCache)(nil)

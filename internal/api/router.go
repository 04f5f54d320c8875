package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/backoffice/internal/api/middleware"
	"github.com/kiranshivaraju/backoffice/internal/api/response"
	"github.com/kiranshivaraju/backoffice/internal/metrics"
	"go.uber.org/zap"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Logger         *zap.Logger
	Auth           *mw.Auth
	RateLimit      *mw.RateLimit
	Metrics        *metrics.HTTP
	RequestTimeout time.Duration

	HealthHandler http.HandlerFunc

	// Resource routers, each serving POST /, GET /, GET /{id},
	// PATCH /{id} and DELETE /{id}.
	OnlineStores          http.Handler
	OnlineMenus           http.Handler
	OnlineOrders          http.Handler
	Tables                http.Handler
	Customers             http.Handler
	Orders                http.Handler
	SubscriptionPlans     http.Handler
	MerchantSubscriptions http.Handler
	Applications          http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Global middleware
	r.Use(mw.RequestLogger(log))
	r.Use(mw.Recovery)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(chimw.Timeout(deps.RequestTimeout))
		}

		// Public health check
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)
			r.Use(deps.RateLimit.Limit)

			r.Mount("/online-stores", orNotMounted(deps.OnlineStores))
			r.Mount("/online-menus", orNotMounted(deps.OnlineMenus))
			r.Mount("/online-orders", orNotMounted(deps.OnlineOrders))
			r.Mount("/tables", orNotMounted(deps.Tables))
			r.Mount("/customers", orNotMounted(deps.Customers))
			r.Mount("/orders", orNotMounted(deps.Orders))
			r.Mount("/subscription-plans", orNotMounted(deps.SubscriptionPlans))
			r.Mount("/merchant-subscriptions", orNotMounted(deps.MerchantSubscriptions))

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireScope("admin"))

				r.Mount("/applications", orNotMounted(deps.Applications))
			})
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

func orNotMounted(h http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return orNotImplemented(nil)
}

// Package main is the entrypoint for the back-office API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/api"
	"github.com/kiranshivaraju/backoffice/internal/api/handler"
	mw "github.com/kiranshivaraju/backoffice/internal/api/middleware"
	"github.com/kiranshivaraju/backoffice/internal/api/response"
	"github.com/kiranshivaraju/backoffice/internal/cache"
	"github.com/kiranshivaraju/backoffice/internal/config"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"github.com/kiranshivaraju/backoffice/internal/metrics"
	"github.com/kiranshivaraju/backoffice/internal/service"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	serviceName     = "backoffice"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "backoffice:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Multi-tenant merchant back office API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return run()
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(*cobra.Command, []string) error {
			return run()
		},
	})
	root.AddCommand(createMerchantCmd())
	return root
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	return serve(cfg, log)
}

func serve(cfg *config.Config, log *zap.Logger) error {
	log.Info("config loaded", zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	log.Info("redis connected")

	// 5. Create store and services
	pgStore := store.NewPostgresStore(pool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Logger:         log,
		Auth:           mw.NewAuth(pgStore, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		RateLimit:      mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMinute),
		Metrics:        metrics.NewHTTP(serviceName, reg),
		RequestTimeout: cfg.Server.RequestTimeout,

		HealthHandler: healthHandler(pgStore, redisCache),
	}
	mountResources(&deps, pgStore)

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// mountResources wires every resource service to its Postgres tables.
func mountResources(deps *api.Dependencies, s *store.PostgresStore) {
	deps.OnlineStores = handler.NewResource[*models.OnlineStore, service.CreateOnlineStoreInput, service.UpdateOnlineStoreInput]("Online store",
		service.NewOnlineStoreService(s.OnlineStores)).Routes()
	deps.OnlineMenus = handler.NewResource[*models.OnlineMenu, service.CreateOnlineMenuInput, service.UpdateOnlineMenuInput]("Online menu",
		service.NewOnlineMenuService(s.OnlineMenus, s.OnlineStores)).Routes()
	deps.OnlineOrders = handler.NewResource[*models.OnlineOrder, service.CreateOnlineOrderInput, service.UpdateOnlineOrderInput]("Online order",
		service.NewOnlineOrderService(s.OnlineOrders, s.OnlineStores, s.Customers, s.Orders)).Routes()
	deps.Tables = handler.NewResource[*models.Table, service.CreateTableInput, service.UpdateTableInput]("Table",
		service.NewTableService(s.Tables)).Routes()
	deps.Customers = handler.NewResource[*models.Customer, service.CreateCustomerInput, service.UpdateCustomerInput]("Customer",
		service.NewCustomerService(s.Customers)).Routes()
	deps.Orders = handler.NewResource[*models.Order, service.CreateOrderInput, service.UpdateOrderInput]("Order",
		service.NewOrderService(s.Orders, s.Customers)).Routes()
	deps.SubscriptionPlans = handler.NewResource[*models.SubscriptionPlan, service.CreateSubscriptionPlanInput, service.UpdateSubscriptionPlanInput]("Subscription plan",
		service.NewSubscriptionPlanService(s.SubscriptionPlans)).Routes()
	deps.MerchantSubscriptions = handler.NewResource[*models.MerchantSubscription, service.CreateMerchantSubscriptionInput, service.UpdateMerchantSubscriptionInput]("Merchant subscription",
		service.NewMerchantSubscriptionService(s.MerchantSubscriptions, s.SubscriptionPlans)).Routes()
	deps.Applications = handler.NewResource[*models.Application, service.CreateApplicationInput, service.UpdateApplicationInput]("Application",
		service.NewApplicationService(s.Applications, bcrypt.DefaultCost)).Routes()
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, "Service healthy", map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/pricebook/internal/catalog"
	"github.com/Simplici0/pricebook/internal/config"
	"github.com/Simplici0/pricebook/internal/db"
	"github.com/Simplici0/pricebook/internal/logging"
	"github.com/Simplici0/pricebook/internal/metrics"
	"github.com/Simplici0/pricebook/internal/migrations"
	"github.com/Simplici0/pricebook/internal/pricing"
	"github.com/Simplici0/pricebook/internal/seed"
	"github.com/Simplici0/pricebook/web"
)

type server struct {
	auth     *authService
	db       *sql.DB
	store    *catalog.Store
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	fallback pricing.Policy
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logging.Fatal("failed to open database", "error", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database, cfg.DBDriver); err != nil {
			logging.Fatal("failed to run database migrations", "error", err)
		}
		slog.Info("migrations applied", "driver", cfg.DBDriver)
	} else {
		slog.Info("skipping automatic migrations outside dev; run cmd/migrate", "env", cfg.Env)
	}

	stats, err := seed.Run(ctx, database, cfg.DBDriver, seed.Config{
		AdminEmail:           cfg.AdminEmail,
		AdminPassword:        cfg.AdminPassword,
		Policy:               cfg.Pricing.Policy(),
		DefaultFixedCosts:    cfg.Pricing.FixedCosts,
		DefaultMarginPercent: cfg.Pricing.ProfitMarginPercent,
	})
	if err != nil {
		logging.Fatal("failed to seed database", "error", err)
	}
	slog.Info("seed complete", "inserts", stats.Inserts, "updates", stats.Updates)

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret = randomSecret()
		slog.Warn("using an ephemeral session secret; sessions will not survive a restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &server{
		auth:     newAuthService(database, cfg.DBDriver, sessionSecret, cfg.SessionTTL),
		db:       database,
		store:    catalog.NewStore(database, cfg.DBDriver),
		metrics:  metrics.New(registry),
		fallback: cfg.Pricing.Policy(),
	}
	if cfg.MetricsEnabled {
		srv.registry = registry
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		return
	}
	slog.Info("graceful shutdown complete")
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	static, _ := fs.Sub(web.FS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/health", s.handleHealth)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)

	r.Get("/products", s.handleProductsList)
	r.Post("/products", s.handleProductCreate)
	r.Post("/products/{id}", s.handleProductUpdate)
	r.Post("/products/{id}/delete", s.handleProductDelete)
	r.Get("/products/{id}/pricing", s.handleCalculatorForm)
	r.Post("/products/{id}/pricing", s.handleCalculatorSubmit)

	r.Get("/admin/settings", s.handleAdminSettingsForm)
	r.Post("/admin/settings", s.handleAdminSettingsSubmit)
	r.Get("/admin/payment-methods", s.handleAdminPaymentMethodsForm)
	r.Post("/admin/payment-methods", s.handleAdminPaymentMethodsCreate)
	r.Post("/admin/payment-methods/{id}", s.handleAdminPaymentMethodsUpdate)

	r.Get("/export/pricing.xlsx", s.handleExportPricing)

	r.Route("/api", func(r chi.Router) {
		r.Post("/pricing/compute", s.handleAPICompute)
		r.Get("/products/{id}/pricing", s.handleAPIGetPricing)
		r.Put("/products/{id}/pricing", s.handleAPISavePricing)
	})

	return r
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

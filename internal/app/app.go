// Package app wires configuration, logging, the source client, the
// reconciliation pipeline and the HTTP transport into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sacdash/internal/config"
	"sacdash/internal/dataprocessing"
	apierrors "sacdash/internal/errors"
	"sacdash/internal/infrastructure"
	"sacdash/internal/middleware"
	"sacdash/internal/services"
	"sacdash/internal/sheets"
	transporthttp "sacdash/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

// App holds the wired application components.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.Metrics
	service *services.DashboardService
	server  *http.Server
}

// New wires the application from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	metrics := infrastructure.NewMetrics()

	client, err := sheets.NewClient(ctx, cfg.Sources, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	processor, err := dataprocessing.NewProcessor(logger, cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	service := services.NewDashboardService(logger, client, processor, metrics, cfg.Pipeline)

	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		service: service,
	}

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// router builds the middleware chain and mounts all routes.
func (a *App) router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(middleware.Recoverer(a.logger))
	r.Use(middleware.Timeout(a.cfg.Server.RequestTimeout))
	if a.cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(a.cfg.Security.RateLimit.RPS, a.cfg.Security.RateLimit.Burst, a.logger)
		r.Use(limiter.Handler)
	}
	r.Use(a.countRequests)

	errorHandler := apierrors.NewErrorHandler(a.logger)
	dashboardHandler := transporthttp.NewDashboardHandler(a.service, a.logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler(a.service, a.logger, Version)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Get("/health", healthHandler.GetHealth)
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{}))

	return r
}

// countRequests feeds the Prometheus request counter.
func (a *App) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.metrics.RequestsTotal.WithLabelValues(r.URL.Path, fmt.Sprintf("%d", ww.Status())).Inc()
	})
}

// Run loads the initial snapshot and serves until interrupted. A failed
// initial load is fatal: no partial dashboard is ever served.
func (a *App) Run(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.Sources.FetchTimeout+30*time.Second)
	err := a.service.Load(loadCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("initial snapshot load failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		a.logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("shutting down", slog.String("reason", "context cancelled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}

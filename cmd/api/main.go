package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/handlers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/routes"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/app"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(context.Background(), cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	application, err := app.New(cfg, app.Options{Metrics: metrics})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	loc := cfg.Hospital.Location()
	sseHandler := handlers.NewSSEHandler(application.Feed, loc)
	wsHandler := handlers.NewWebSocketHandler(application.Feed, loc, cfg.Server.AllowedOrigins)
	router := routes.NewRouter(application.Auth, routes.Handlers{
		Auth:          handlers.NewAuthHandler(application.Auth),
		Departments:   handlers.NewDepartmentHandler(application.Departments, application.Ledger),
		Patients:      handlers.NewPatientHandler(application.Patients, application.Ledger, loc),
		Notifications: handlers.NewNotificationHandler(application.Notifications),
		Reports:       handlers.NewReportHandler(application.Reports),
		SSE:           sseHandler,
		WebSocket:     wsHandler,
	}, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // streams stay open
		IdleTimeout:       120 * time.Second,
	}
	// Shutdown does not wait for hijacked or streaming connections to go idle
	server.RegisterOnShutdown(sseHandler.Shutdown)
	server.RegisterOnShutdown(wsHandler.Shutdown)

	go func() {
		log.Info().Str("addr", serverAddr).Str("store", cfg.Store.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

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

// The stream server only serves live feeds. It sees writes made by API
// replicas through the Redis event bus, so Redis is mandatory here.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-stream", cfg.Env)

	log.Info().Msg("Starting stream server...")

	application, err := app.New(cfg, app.Options{RequireRedis: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	loc := cfg.Hospital.Location()
	sseHandler := handlers.NewSSEHandler(application.Feed, loc)
	wsHandler := handlers.NewWebSocketHandler(application.Feed, loc, cfg.Server.AllowedOrigins)

	router := routes.NewRouter(application.Auth, routes.Handlers{
		SSE:       sseHandler,
		WebSocket: wsHandler,
	}, cfg.Server.AllowedOrigins, nil)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no timeout for streaming
		IdleTimeout:  120 * time.Second,
	}
	server.RegisterOnShutdown(sseHandler.Shutdown)
	server.RegisterOnShutdown(wsHandler.Shutdown)

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Stream server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Stream server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Stream server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Stream server stopped")
}

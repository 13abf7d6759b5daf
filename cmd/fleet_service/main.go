package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-fleet/internal/common/config"
	"car-fleet/internal/common/db"
	"car-fleet/internal/common/log"
	"car-fleet/internal/common/rabbitmq"
	commonws "car-fleet/internal/common/ws"
	"car-fleet/internal/fleet/adapters/api"
	"car-fleet/internal/fleet/adapters/geocode"
	"car-fleet/internal/fleet/adapters/queue"
	"car-fleet/internal/fleet/adapters/repository"
	fleetws "car-fleet/internal/fleet/adapters/ws"
	"car-fleet/internal/fleet/app"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.New("fleet-service")
	log.Info(ctx, logger, "init_start", "Fleet service initializing...")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Error(ctx, logger, "config_load_fail", "Failed to load config file", err)
		os.Exit(1)
	}
	log.Info(ctx, logger, "config_loaded", "Configuration loaded successfully")

	// Postgres
	dbPool, err := db.ConnectPostgres(ctx, cfg.DB)
	if err != nil {
		log.Error(ctx, logger, "connect_db_fail", "Failed to connect to database", err)
		os.Exit(1)
	}
	log.Info(ctx, logger, "db_connected", "Connected to PostgreSQL")

	// RabbitMQ manager (handles reconnect loop internally)
	rmq := rabbitmq.NewMQ(cfg.RMQ, logger)
	if err := rmq.Connect(ctx); err != nil {
		log.Error(ctx, logger, "rmq_connect_fail", "Failed to connect to RabbitMQ", err)
		os.Exit(1)
	}
	if err := rmq.DeclareTopology(); err != nil {
		log.Error(ctx, logger, "rmq_declare_topology_fail", "Failed to declare RabbitMQ topology", err)
		os.Exit(1)
	}
	log.Info(ctx, logger, "rmq_ready", "RabbitMQ topology declared")

	// Repositories, adapters, and application services
	carRepo := repository.NewCarRepository(dbPool)
	driverRepo := repository.NewDriverRepository(dbPool)
	positionRepo := repository.NewPositionRepository(dbPool)

	geocoder := geocode.NewClient(cfg.Geo.BaseURL, time.Duration(cfg.Geo.TimeoutMS)*time.Millisecond)
	publisher := queue.NewPositionPublisher(rmq, logger)

	hub := commonws.NewHub(logger)
	feed := fleetws.NewFeed(hub)
	feedHandler := fleetws.NewFeedHandler(logger, hub)

	assignment := app.NewDriverAssignmentService(carRepo, driverRepo)
	fleet := app.NewFleetService(carRepo, driverRepo, assignment)
	ingestion := app.NewPositionIngestionService(carRepo, positionRepo, geocoder, publisher, feed, logger)

	handler := api.NewHandler(fleet, assignment, ingestion, feedHandler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           withConcurrencyLimit(256, handler.Router()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info(ctx, logger, "http_server_start", fmt.Sprintf("Starting HTTP server on port %d", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, logger, "http_server_fail", "HTTP server failed", err)
			cancel()
		}
	}()

	// Wait for termination signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		log.Info(ctx, logger, "shutdown_signal", "Shutdown signal received")
	case <-ctx.Done():
		log.Info(ctx, logger, "shutdown_ctx", "Context canceled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, logger, "http_shutdown_fail", "HTTP server shutdown failed", err)
	} else {
		log.Info(ctx, logger, "http_shutdown", "HTTP server stopped")
	}

	rmq.Close()
	dbPool.Close()

	log.InfoX(logger, "shutdown_complete", "Fleet service stopped")
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based
// limiter controlling how many requests can be in flight at once.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}

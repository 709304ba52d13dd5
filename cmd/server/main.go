/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the visit engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment)
  2. Build the logger
  3. Open the store selected by STORE_DRIVER
  4. Build notifiers (in-process broadcaster, RabbitMQ when AMQP_URL is set)
  5. Create the service, handler and router
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the publisher and database connection
  4. Exit

SEE ALSO:
  - config/config.go: Environment keys and defaults
  - api/server.go: Router configuration
*/
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

	"github.com/rs/zerolog"

	"github.com/greenround/visit-engine/api"
	"github.com/greenround/visit-engine/config"
	"github.com/greenround/visit-engine/lawncare"
	"github.com/greenround/visit-engine/logging"
	"github.com/greenround/visit-engine/notify"
	"github.com/greenround/visit-engine/store/memory"
	"github.com/greenround/visit-engine/store/postgres"
	"github.com/greenround/visit-engine/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg, loc)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer closeStore()

	// Notifiers
	broadcaster := notify.NewBroadcaster()
	notifiers := notify.Fanout{broadcaster}
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing change events to RabbitMQ")
	}

	svc := lawncare.NewService(store, notifiers, loc, log)
	svc.Retry = lawncare.RetryPolicy{Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}

	handler := api.NewHandler(svc, broadcaster, log)
	router := api.NewRouter(handler, cfg.AllowedOrigins())

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.StoreDriver).
			Str("timezone", loc.String()).
			Msg("visit engine listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Int64("dropped_events", broadcaster.Dropped()).Msg("server exited")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, loc *time.Location) (lawncare.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRepository(pool, loc), pool.Close, nil

	default:
		store, err := sqlite.New(cfg.SQLitePath, loc)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

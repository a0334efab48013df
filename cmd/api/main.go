// Package main is the entry point of the School Hub API server.
//
// Startup order: configuration, logger, storage (with retry), event bus and
// optional Redis forwarding, services, HTTP server. On SIGINT/SIGTERM the
// server drains, storage and Redis are closed and the logger is flushed.
//
// With -migrate=up|down|status the binary instead runs one PostgreSQL
// migration action, prints the migration status and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gestao-escolar/school-hub/config"
	"github.com/gestao-escolar/school-hub/internal/application/service"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/messaging"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/postgres"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/redis"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/gestao-escolar/school-hub/internal/interface/http"
	"github.com/gestao-escolar/school-hub/internal/interface/http/handlers"
	"github.com/gestao-escolar/school-hub/pkg/logger"
	"github.com/gestao-escolar/school-hub/pkg/retry"
)

func main() {
	migrate := flag.String("migrate", "", "run a postgres migration action (up, down, status) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, migrate string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration & logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.LogCaller,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
	defer func() { _ = log.Flush() }()

	if migrate != "" {
		return runMigrate(ctx, cfg, migrate, os.Stdout, log.With(logger.String("migrate", migrate)))
	}

	log.Info("starting School Hub API",
		logger.String("version", cfg.App.Version),
		logger.String("driver", cfg.Database.Driver),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Storage
	// ─────────────────────────────────────────────────────────────────────────
	store, err := retry.DoWithData(ctx, func(ctx context.Context) (school.Store, error) {
		return openStore(ctx, cfg.Database)
	},
		retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
		retry.WithRetryIf(func(err error) bool { return shared.KindOf(err) == shared.KindConnection }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("storage not reachable, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		log.Info("closing storage")
		if err := store.Close(); err != nil {
			log.Error("storage close failed", logger.Err(err))
		}
	}()
	log.Info("storage ready")

	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("database", handlers.NewPingCheck(store))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Events
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(log)
	defer func() { _ = bus.Close() }()

	if cfg.Redis.Enabled {
		publisher, err := redis.NewPublisher(ctx, redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, events stay in-process", logger.Err(err))
		} else {
			defer func() { _ = publisher.Close() }()
			forwarder := messaging.NewRedisForwarder(publisher, cfg.Redis.PublishTimeout, log)
			if err := bus.SubscribeAll(forwarder.Handle); err != nil {
				return fmt.Errorf("failed to subscribe redis forwarder: %w", err)
			}
			checker.AddCheck("redis", handlers.NewPingCheck(publisher))
			log.Info("forwarding events to redis", logger.String("addr", cfg.Redis.Host))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Services & HTTP
	// ─────────────────────────────────────────────────────────────────────────
	services := service.New(store, bus, log)

	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		MaxBodyBytes:       1 << 20,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimit,
		TrustedProxies:     cfg.HTTP.TrustedProxies,
	}, httpapi.Dependencies{
		Services:      services,
		HealthChecker: checker,
		Logger:        log,
		Version:       cfg.App.Version,
	})

	errCh := server.StartAsync()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("http shutdown failed", logger.Err(err))
	}
	log.Info("School Hub API stopped", logger.Int64("events_published", bus.Metrics().Published))
	return nil
}

// openStore connects to the configured storage engine and applies its
// migrations.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (school.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.URL,
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.ConnMaxLifetime,
			MaxConnIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, retry.Permanent(fmt.Errorf("unsupported database driver %q", cfg.Driver))
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gestao-escolar/school-hub/config"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/postgres"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// Migration actions accepted by -migrate.
const (
	migrateUp     = "up"
	migrateDown   = "down"
	migrateStatus = "status"
)

// migrateRunner is the subset of *postgres.Migrator the -migrate mode drives.
type migrateRunner interface {
	Migrate(ctx context.Context) error
	Rollback(ctx context.Context) error
	Status(ctx context.Context) ([]postgres.Migration, error)
}

// runMigrate connects to PostgreSQL and performs one migration action.
// SQLite applies its migrations when opened and has no down steps.
func runMigrate(ctx context.Context, cfg *config.Config, action string, out io.Writer, log *logger.Logger) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("-migrate requires DATABASE_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	conn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	return applyMigration(ctx, postgres.NewMigrator(conn), action, out, log)
}

func applyMigration(ctx context.Context, m migrateRunner, action string, out io.Writer, log *logger.Logger) error {
	switch action {
	case migrateUp:
		if err := m.Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations applied")
	case migrateDown:
		if err := m.Rollback(ctx); err != nil {
			return err
		}
		log.Info("last migration rolled back")
	case migrateStatus:
	default:
		return fmt.Errorf("unknown migrate action %q (want %s, %s or %s)", action, migrateUp, migrateDown, migrateStatus)
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	for _, mig := range status {
		applied := "pending"
		if mig.IsApplied {
			applied = mig.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%04d %-28s %s\n", mig.Version, mig.Name, applied)
	}
	return nil
}

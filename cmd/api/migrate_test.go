package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestao-escolar/school-hub/config"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/postgres"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

type fakeMigrator struct {
	calls  []string
	status []postgres.Migration
	err    error
}

func (f *fakeMigrator) Migrate(context.Context) error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Rollback(context.Context) error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Status(context.Context) ([]postgres.Migration, error) {
	f.calls = append(f.calls, "status")
	return f.status, nil
}

func TestApplyMigration(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	status := []postgres.Migration{
		{Version: 1, Name: "create_school_schema", IsApplied: true, AppliedAt: at},
		{Version: 2, Name: "create_lookup_indexes"},
	}

	tests := map[string][]string{
		"up":     {"up", "status"},
		"down":   {"down", "status"},
		"status": {"status"},
	}
	for action, calls := range tests {
		t.Run(action, func(t *testing.T) {
			m := &fakeMigrator{status: status}
			var out bytes.Buffer

			require.NoError(t, applyMigration(context.Background(), m, action, &out, logger.Nop()))
			assert.Equal(t, calls, m.calls)
			assert.Contains(t, out.String(), "0001 create_school_schema")
			assert.Contains(t, out.String(), "2026-03-01T12:00:00Z")
			assert.Contains(t, out.String(), "pending")
		})
	}
}

func TestApplyMigration_Failures(t *testing.T) {
	boom := errors.New("boom")
	m := &fakeMigrator{err: boom}
	var out bytes.Buffer

	assert.ErrorIs(t, applyMigration(context.Background(), m, "up", &out, logger.Nop()), boom)
	assert.Empty(t, out.String())

	err := applyMigration(context.Background(), &fakeMigrator{}, "sideways", &out, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migrate action "sideways"`)
}

func TestRunMigrate_RequiresPostgres(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverSQLite}}

	err := runMigrate(context.Background(), cfg, "up", &bytes.Buffer{}, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER=postgres")
}

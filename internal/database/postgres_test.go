package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/tnb/internal/config"
)

// Test configuration for local PostgreSQL
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "tnb"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		SSLMode:  "disable",
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// skipWithoutDatabase skips integration tests unless TNB_INTEGRATION is set.
func skipWithoutDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("TNB_INTEGRATION") == "" {
		t.Skip("Skipping integration test: TNB_INTEGRATION not set")
	}
}

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		Name:     "tnb",
		User:     "tnb_app",
		Password: "secret",
	}

	assert.Equal(t, "postgres://tnb_app:secret@db:5433/tnb?sslmode=disable", DSN(cfg))

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://tnb_app:secret@db:5433/tnb?sslmode=require", DSN(cfg))
}

func TestStats_NilPool(t *testing.T) {
	db := &Database{}
	assert.Nil(t, db.Stats())
	assert.NotPanics(t, db.Close)
}

func TestNewPostgresPool_Success(t *testing.T) {
	skipWithoutDatabase(t)

	ctx := context.Background()
	cfg := getTestConfig()

	db, err := NewPostgresPool(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db.Pool)
	assert.NotNil(t, db.Stats())
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	skipWithoutDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	_, err := NewPostgresPool(ctx, cfg)
	assert.Error(t, err)
}

func TestNewPostgresPool_InvalidCredentials(t *testing.T) {
	skipWithoutDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Password = "wrong-password"

	_, err := NewPostgresPool(ctx, cfg)
	assert.Error(t, err)
}

func TestPing_AfterClose(t *testing.T) {
	skipWithoutDatabase(t)

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	require.NoError(t, err)

	require.NoError(t, db.Ping(ctx))

	db.Close()
	assert.Error(t, db.Ping(ctx), "Expected ping to fail after pool is closed")

	// Close multiple times should not panic
	db.Close()
}

func TestStats_PoolConfiguration(t *testing.T) {
	skipWithoutDatabase(t)

	ctx := context.Background()
	cfg := getTestConfig()
	cfg.PoolMin = 3
	cfg.PoolMax = 8

	db, err := NewPostgresPool(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	stats := db.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, int32(8), stats.MaxConns())
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	skipWithoutDatabase(t)

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	skipWithoutDatabase(t)

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.EnsureSchema(ctx))

	reference := "TX-ROLLBACK-" + time.Now().Format("150405.000000")
	errAbort := errors.New("abort")

	err = db.WithTx(ctx, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, `
			INSERT INTO parcels (reference, taxable_surface, zone_code, legal_status, occupation_status)
			VALUES ($1, 100, 'A', 'titled', 'bare')`, reference)
		if execErr != nil {
			return execErr
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM parcels WHERE reference = $1`, reference).Scan(&count))
	assert.Equal(t, 0, count)
}

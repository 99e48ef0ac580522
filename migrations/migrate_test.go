package migrations_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/findme-orders/internal/postgres"
	"github.com/ariefcatur/findme-orders/migrations"
)

func TestNamesAreOrdered(t *testing.T) {
	names, err := migrations.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_orders.sql", "002_expiry_alerts.sql"}, names)
}

func TestApplyRecordsMigrationsOnce(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer pool.Close()

	require.NoError(t, migrations.Apply(ctx, pool))
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.GreaterOrEqual(t, count, 2)

	require.NoError(t, migrations.Apply(ctx, pool))
	var again int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)
}

package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
	"solana-stake-desk/internal/storage/clickhouse"
	"solana-stake-desk/internal/storage/migrations"
)

// setupTestDB creates a ClickHouse container and returns a migrated connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*clickhouse.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/stakedesk", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func snapshot(pool string, observedAt int64) *domain.PoolSnapshot {
	return &domain.PoolSnapshot{
		Pool:                pool,
		ObservedAt:          observedAt,
		TotalLamports:       1_050_000_000_000,
		PoolTokenSupply:     1_000_000_000_000,
		LastUpdateEpoch:     600,
		SolDepositFeeBps:    5,
		SolWithdrawFeeBps:   30,
		StakeWithdrawFeeBps: 30,
	}
}

func TestPoolSnapshotStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewPoolSnapshotStore(conn)

	for _, ts := range []int64{3000, 1000, 2000} {
		require.NoError(t, store.Insert(ctx, snapshot("pool-a", ts)))
	}
	require.NoError(t, store.Insert(ctx, snapshot("pool-b", 1500)))

	got, err := store.GetByTimeRange(ctx, "pool-a", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].ObservedAt)
	assert.Equal(t, int64(2000), got[1].ObservedAt)
	assert.Equal(t, *snapshot("pool-a", 1000), *got[0])

	latest, err := store.Latest(ctx, "pool-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), latest.ObservedAt)
}

func TestPoolSnapshotStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewPoolSnapshotStore(conn)

	require.NoError(t, store.Insert(ctx, snapshot("pool-a", 1000)))
	assert.ErrorIs(t, store.Insert(ctx, snapshot("pool-a", 1000)), storage.ErrDuplicateKey)
}

func TestPoolSnapshotStore_LatestNotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := clickhouse.NewPoolSnapshotStore(conn).Latest(context.Background(), "nothing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApplyClickhouse_Idempotent(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, migrations.ApplyClickhouse(context.Background(), conn))
}

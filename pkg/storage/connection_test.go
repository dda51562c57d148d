package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pulse/pkg/activity"
)

func TestOpenDB_SQLiteMemory(t *testing.T) {
	config := DefaultConfig()
	config.Driver = activity.DriverSQLite
	config.URL = ":memory:"

	db, err := OpenDB(config)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	require.NoError(t, activity.Migrate(context.Background(), db, activity.DriverSQLite))
}

func TestOpenDB_SQLiteMemoryKeepsSchemaWhenIdle(t *testing.T) {
	config := DefaultConfig()
	config.Driver = activity.DriverSQLite
	config.URL = ":memory:"
	config.MinConns = 5
	config.MaxIdleTime = 50 * time.Millisecond
	config.MaxLifetime = 50 * time.Millisecond

	db, err := OpenDB(config)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, activity.Migrate(ctx, db, activity.DriverSQLite))
	store, err := activity.NewSQLStore(db, activity.Options{Driver: activity.DriverSQLite})
	require.NoError(t, err)

	created, err := store.RecordActivity(ctx, "1", "search", "2026-10-18")
	require.NoError(t, err)
	assert.True(t, created)

	time.Sleep(1500 * time.Millisecond)

	created, err = store.RecordActivity(ctx, "1", "search", "2026-10-19")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, db.Stats().MaxIdleTimeClosed+db.Stats().MaxLifetimeClosed)
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	config := DefaultConfig()
	config.Driver = "mysql"

	_, err := OpenDB(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenDB_EmptyURL(t *testing.T) {
	config := DefaultConfig()
	config.URL = " "

	_, err := OpenDB(config)
	require.Error(t, err)
}

func TestOpenDB_PostgresUnreachable(t *testing.T) {
	config := DefaultConfig()
	config.URL = "postgres://nobody@127.0.0.1:1/pulse?sslmode=disable&connect_timeout=1"

	_, err := OpenDB(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestNewRedisClient_Success(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	config := DefaultConfig()
	config.RedisURL = "redis://" + mr.Addr()

	client, err := NewRedisClient(config)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 10, client.Options().PoolSize)
	assert.Equal(t, 3, client.Options().MaxRetries)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	config := DefaultConfig()
	config.RedisURL = "invalid://url"

	_, err := NewRedisClient(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestNewRedisClient_ConnectionFailure(t *testing.T) {
	config := DefaultConfig()
	config.RedisURL = "redis://127.0.0.1:1"

	_, err := NewRedisClient(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

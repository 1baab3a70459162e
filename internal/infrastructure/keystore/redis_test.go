package keystore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
)

// setupRedis starts a throwaway Redis container
func setupRedis(t *testing.T) *RedisKeystore {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	return NewFromClient(client, logger.Discard())
}

func TestReserve_OnlyOnce(t *testing.T) {
	ks := setupRedis(t)
	ctx := context.Background()

	ok, err := ks.Reserve(ctx, "complaint-number:ADU-20240312101500", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ks.Reserve(ctx, "complaint-number:ADU-20240312101500", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ks.Release(ctx, "complaint-number:ADU-20240312101500"))
	ok, err = ks.Reserve(ctx, "complaint-number:ADU-20240312101500", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserve_Expires(t *testing.T) {
	ks := setupRedis(t)
	ctx := context.Background()

	ok, err := ks.Reserve(ctx, "short", 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(300 * time.Millisecond)

	ok, err = ks.Reserve(ctx, "short", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHealth(t *testing.T) {
	ks := setupRedis(t)

	health := ks.Health(context.Background())
	assert.Equal(t, "up", health["status"])
}

func TestHealth_Down(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	ks := NewFromClient(client, logger.Discard())

	health := ks.Health(context.Background())
	assert.Equal(t, "down", health["status"])
}

package keystore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
)

// keyPrefix namespaces reservations from other users of the same Redis DB
const keyPrefix = "complaint-analyzer:"

// RedisKeystore claims one-shot keys shared by every API and worker process
type RedisKeystore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisKeystore connects and pings Redis
func NewRedisKeystore(cfg *config.RedisConfig, logger *slog.Logger) (*RedisKeystore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Int("db", cfg.DB),
	)

	return NewFromClient(client, logger), nil
}

// NewFromClient wraps an existing client
func NewFromClient(client *redis.Client, logger *slog.Logger) *RedisKeystore {
	return &RedisKeystore{
		client: client,
		logger: logger,
	}
}

// Reserve claims key for ttl. It reports false when another process already holds it.
func (r *RedisKeystore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a reservation early
func (r *RedisKeystore) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

func (r *RedisKeystore) Close() error {
	r.logger.Info("closing redis connection")
	return r.client.Close()
}

func (r *RedisKeystore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Health returns connection pool stats, or the ping error when Redis is unreachable
func (r *RedisKeystore) Health(ctx context.Context) map[string]interface{} {
	if err := r.Ping(ctx); err != nil {
		return map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"status":      "up",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}

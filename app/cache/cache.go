package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis for short-lived calendar response caching. Calendar
// reads repeat heavily around release times, and entries expire on their
// own so a sync never needs to invalidate anything.
type Cache struct {
	client *redis.Client
}

func NewCache(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

// Get returns the cached value for key, or the empty string on a miss.
// Only transport errors are returned.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// ResponseKey builds the cache key for a calendar read, for example
// calendar:economics:2026-08-01:2026-08-31. Open bounds become "all";
// keys stay readable so they can be inspected with redis-cli.
func ResponseKey(kind string, start, end *time.Time) string {
	return strings.Join([]string{"calendar", kind, bound(start), bound(end)}, ":")
}

func bound(t *time.Time) string {
	if t == nil {
		return "all"
	}
	return t.Format("2006-01-02")
}

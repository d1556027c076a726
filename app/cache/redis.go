package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "pulse"
	cyclesChannel = "pulse:cycles"
)

// Cache mirrors the latest aggregation into Redis for other consumers. It is
// write-only from this process's point of view.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis at addr. Snapshots expire after ttl.
func NewCache(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return newCache(client, ttl), nil
}

func newCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) GenerateLatestKey() string {
	return fmt.Sprintf("%s:latest", keyPrefix)
}

func (c *Cache) GenerateSectionKey(section string) string {
	return fmt.Sprintf("%s:section:%s", keyPrefix, section)
}

func (c *Cache) GenerateCycleKey(cycleID string) string {
	return fmt.Sprintf("%s:cycle:%s", keyPrefix, cycleID)
}

// Publish stores the result and each of its sections, then announces the
// cycle ID on the cycles channel.
func (c *Cache) Publish(ctx context.Context, result *aggregator.Result) error {
	snapshot, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	sections := make(map[string][]byte, len(result.Sections))
	for name, items := range result.Sections {
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal section %s: %w", name, err)
		}
		sections[name] = data
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.GenerateLatestKey(), snapshot, c.ttl)
		pipe.Set(ctx, c.GenerateCycleKey(result.CycleID), snapshot, c.ttl)
		for name, data := range sections {
			pipe.Set(ctx, c.GenerateSectionKey(name), data, c.ttl)
		}
		pipe.Publish(ctx, cyclesChannel, result.CycleID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", result.CycleID, err)
	}

	return nil
}

// Health returns cache health information
func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}

package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vireopay/agentdesk/internal/config"
)

// Cache stores retrieval results in Redis for a short TTL. Retrieval is
// idempotent for a fixed index snapshot, so repeated queries can reuse the
// previous result. Cache failures are logged and treated as misses; the
// engine must keep working when Redis is down.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(cfg config.CacheConfig) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &Cache{
		client: rdb,
		ttl:    cfg.TTL,
	}
}

// NewCacheWithClient is used by tests to inject a client bound to miniredis.
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]Passage, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("retrieval cache get failed", "error", err)
		}
		return nil, false
	}

	var passages []Passage
	if err := json.Unmarshal([]byte(raw), &passages); err != nil {
		slog.Warn("retrieval cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return passages, true
}

func (c *Cache) Set(ctx context.Context, key string, passages []Passage) {
	raw, err := json.Marshal(passages)
	if err != nil {
		slog.Warn("retrieval cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.Warn("retrieval cache set failed", "error", err)
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

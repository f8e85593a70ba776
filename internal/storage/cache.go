package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache 用 Redis 缓存上游响应，实现 collector.ResponseCache。
// Redis 不可用时所有操作退化为未命中，不影响采集。
type Cache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCache(redisAddr string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Cache{Redis: rdb, TTL: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := c.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("warn: cache get %s failed: %v", key, err)
		}
		return nil, false
	}
	return bs, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if err := c.Redis.Set(ctx, key, value, c.TTL).Err(); err != nil {
		log.Printf("warn: cache set %s failed: %v", key, err)
	}
}

func (c *Cache) Close() error {
	return c.Redis.Close()
}

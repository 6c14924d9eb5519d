package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// TextCache stores the text a hosted model returned for an encoded image so
// resubmitting the same file does not call the provider again.
type TextCache interface {
	GetText(ctx context.Context, key string) (string, bool)
	SetText(ctx context.Context, key, text string)
}

type entry struct {
	Text string `json:"text"`
}

type RedisTextCache struct {
	cache *Cache
	ttl   time.Duration
}

func NewRedisTextCache(client *redis.Client, ttl time.Duration) *RedisTextCache {
	return &RedisTextCache{cache: NewCache(client), ttl: ttl}
}

// GetText reports a miss on any error, including redis being unreachable.
func (c *RedisTextCache) GetText(ctx context.Context, key string) (string, bool) {
	var e entry
	if err := c.cache.Get(ctx, key, &e); err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return e.Text, true
}

func (c *RedisTextCache) SetText(ctx context.Context, key, text string) {
	if err := c.cache.Set(ctx, key, entry{Text: text}, c.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// Nop never hits.
type Nop struct{}

func (Nop) GetText(context.Context, string) (string, bool) { return "", false }
func (Nop) SetText(context.Context, string, string)        {}

// Key identifies the output of one model route for the given inputs, such as
// the encoded image and the prompt sent with it.
func Key(route, model string, parts ...[]byte) string {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		h.Write(p)
	}
	return fmt.Sprintf("extract:%s:%s:%s", route, model, hex.EncodeToString(h.Sum(nil)))
}

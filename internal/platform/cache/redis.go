// Package cache connects to Redis and stores JSON values with a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Connect parses a redis:// URL, dials and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// KV is the subset of the go-redis client the JSON cache needs.
type KV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// JSON stores JSON-encoded values under a key prefix.
type JSON struct {
	kv     KV
	prefix string
	ttl    time.Duration
}

func NewJSON(kv KV, prefix string, ttl time.Duration) *JSON {
	return &JSON{kv: kv, prefix: prefix, ttl: ttl}
}

func (c *JSON) key(k string) string { return c.prefix + k }

// GetJSON decodes the value stored at key into dst.
func (c *JSON) GetJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := c.kv.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it with the cache TTL.
func (c *JSON) SetJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

package cache

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// Fetch GetOrCompute 的泛型封装，payload 以 JSON 编码
func Fetch[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, Result, error) {
	res, err := c.GetOrCompute(ctx, key, ttl, encode(fn))
	return decode[T](key, res, err)
}

// Reload Refresh 的泛型封装
func Reload[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, Result, error) {
	res, err := c.Refresh(ctx, key, ttl, encode(fn))
	return decode[T](key, res, err)
}

// Lookup Get 的泛型封装，未命中或无法解码时返回 false
func Lookup[T any](ctx context.Context, c *Coordinator, key string) (T, bool) {
	var v T
	res, ok := c.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(res.Payload, &v); err != nil {
		log.WarnContext(ctx, "Cache entry decode failed", "key", key, "err", err)
		return v, false
	}
	return v, true
}

// Store Put 的泛型封装
func Store[T any](ctx context.Context, c *Coordinator, key string, v T, source Result) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.Put(ctx, key, payload, source)
}

func encode[T any](fn func(ctx context.Context) (T, error)) ComputeFunc {
	return func(ctx context.Context) ([]byte, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
}

func decode[T any](key string, res Result, err error) (T, Result, error) {
	var v T
	if err != nil {
		return v, res, err
	}
	if err := json.Unmarshal(res.Payload, &v); err != nil {
		return v, res, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return v, res, nil
}

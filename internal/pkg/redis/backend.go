package redis

import (
	"CraveQuest/internal/pkg/cache"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldData       = "data"
	fieldVersion    = "ver"
	fieldComputedAt = "at"
	fieldExpiresAt  = "exp"

	scanBatch = 200

	// 缓存条目的物理 key 前缀，与其他数据隔离
	entryNamespace = "cache:"
)

// 版本号为 19 位十进制纳秒时间戳，按字符串比较避免 Lua 浮点精度丢失
const versionCompare = `
local function newer(a, b)
	if #a ~= #b then
		return #a > #b
	end
	return a > b
end
`

// ARGV: data, ver, at, exp, retention(ms)
// 已存版本更新时不写入，返回已存条目
var setEntryScript = redis.NewScript(versionCompare + `
local cur = redis.call('HGET', KEYS[1], 'ver')
if cur and newer(cur, ARGV[2]) then
	return redis.call('HMGET', KEYS[1], 'data', 'ver', 'at', 'exp')
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'ver', ARGV[2], 'at', ARGV[3], 'exp', ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return false
`)

// ARGV: ver
var markStaleScript = redis.NewScript(versionCompare + `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'exp', '0')
local cur = redis.call('HGET', KEYS[1], 'ver')
if not cur or newer(ARGV[1], cur) then
	redis.call('HSET', KEYS[1], 'ver', ARGV[1])
end
return 1
`)

// CacheBackend 基于 hash 的缓存存储，实现 cache.Backend
type CacheBackend struct {
	client *Client
}

func NewCacheBackend(client *Client) *CacheBackend {
	return &CacheBackend{client: client}
}

func (b *CacheBackend) Get(ctx context.Context, key string) (*cache.Entry, error) {
	vals, err := b.client.rdb.HMGet(ctx, entryNamespace+key, fieldData, fieldVersion, fieldComputedAt, fieldExpiresAt).Result()
	if err != nil {
		return nil, err
	}
	return parseEntry(vals)
}

func (b *CacheBackend) Set(ctx context.Context, key string, e *cache.Entry, retention time.Duration) (*cache.Entry, error) {
	res, err := setEntryScript.Run(ctx, b.client.rdb, []string{entryNamespace + key},
		e.Payload,
		formatVersion(e.Version),
		e.ComputedAt.UnixNano(),
		e.ExpiresAt.UnixNano(),
		retention.Milliseconds(),
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return e, nil
		}
		return nil, err
	}

	vals, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected set reply %T", res)
	}
	stored, err := parseEntry(vals)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return e, nil
	}
	return stored, nil
}

func (b *CacheBackend) MarkStale(ctx context.Context, prefix string, version int64) error {
	iter := b.client.rdb.Scan(ctx, 0, entryNamespace+escapePattern(prefix)+"*", scanBatch).Iterator()
	ver := formatVersion(version)
	for iter.Next(ctx) {
		if err := markStaleScript.Run(ctx, b.client.rdb, []string{iter.Val()}, ver).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func parseEntry(vals []interface{}) (*cache.Entry, error) {
	if len(vals) != 4 || vals[0] == nil {
		return nil, nil
	}
	data, _ := vals[0].(string)
	ver, err := parseInt(vals[1])
	if err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}
	at, err := parseInt(vals[2])
	if err != nil {
		return nil, fmt.Errorf("parse computed_at: %w", err)
	}
	exp, err := parseInt(vals[3])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &cache.Entry{
		Payload:    []byte(data),
		Version:    ver,
		ComputedAt: time.Unix(0, at),
		ExpiresAt:  time.Unix(0, exp),
	}, nil
}

func parseInt(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected value %v", v)
	}
	return strconv.ParseInt(s, 10, 64)
}

// formatVersion 固定 19 位，保证字符串比较与数值比较一致
func formatVersion(v int64) string {
	return fmt.Sprintf("%019d", v)
}

func escapePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

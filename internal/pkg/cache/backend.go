package cache

import (
	"context"
	"time"
)

// Entry 缓存条目
// Version 为产生该数据的计算开始时间 (unix ns)，同一 key 的写入按 Version 单调
type Entry struct {
	Payload    []byte
	Version    int64
	ComputedAt time.Time
	ExpiresAt  time.Time
}

func (e *Entry) Fresh(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}

// Backend 缓存存储
type Backend interface {
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, key string) (*Entry, error)
	// Set 仅当 e.Version 不小于已存版本时写入，返回写入后实际保存的条目
	Set(ctx context.Context, key string, e *Entry, retention time.Duration) (*Entry, error)
	// MarkStale 将前缀下的条目置为过期但保留数据，并把版本抬到 version，
	// 使 version 之前开始的计算无法再覆盖
	MarkStale(ctx context.Context, prefix string, version int64) error
}

// Locker 跨实例互斥，token 用于只释放自己持有的锁
type Locker interface {
	TryLock(ctx context.Context, key string, token string, ttl time.Duration, retryTimes int) (bool, error)
	UnLock(ctx context.Context, key string, token string)
}

package redis

import (
	"CraveQuest/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrendCounters 按窗口桶计数，每个 (维度, 桶) 一个 hash，另有一个总数计数器
type TrendCounters struct {
	client *Client
}

func NewTrendCounters(client *Client) *TrendCounters {
	return &TrendCounters{client: client}
}

func bucketKey(dimension string, bucket int64) string {
	return consts.TrendBucketKey + dimension + ":" + strconv.FormatInt(bucket, 10)
}

// Incr 原子地为 key 与维度总数各加 1
func (t *TrendCounters) Incr(ctx context.Context, dimension string, bucket int64, key string, ttl time.Duration) error {
	hk := bucketKey(dimension, bucket)
	tk := hk + ":total"

	pipe := t.client.rdb.TxPipeline()
	pipe.HIncrBy(ctx, hk, key, 1)
	pipe.Incr(ctx, tk)
	pipe.Expire(ctx, hk, ttl)
	pipe.Expire(ctx, tk, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Counts 返回桶内各 key 计数与维度总数，桶不存在时返回空
func (t *TrendCounters) Counts(ctx context.Context, dimension string, bucket int64) (map[string]int64, int64, error) {
	hk := bucketKey(dimension, bucket)

	pipe := t.client.rdb.Pipeline()
	all := pipe.HGetAll(ctx, hk)
	total := pipe.Get(ctx, hk+":total")
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	counts := make(map[string]int64, len(all.Val()))
	for k, v := range all.Val() {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse trend count %s: %w", k, err)
		}
		counts[k] = n
	}

	sum, err := total.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}
	return counts, sum, nil
}

package redis

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/pkg/logger"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const slowCommandThreshold = 100 * time.Millisecond

// Client go-redis 客户端封装，由 wire 创建后注入各组件
type Client struct {
	rdb *redis.Client
}

// NewClient 初始化 Redis 客户端连接
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return Wrap(rdb), nil
}

// Wrap 包装已有连接并挂上日志 hook
func Wrap(rdb *redis.Client) *Client {
	rdb.AddHook(logger.NewRedisLogger(slowCommandThreshold))
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

package redis

import (
	"CraveQuest/internal/api/config"
	"time"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		ComputeTimeout: time.Second,
		StaleRetention: time.Hour,
		LockTTL:        time.Second,
		LockRetry:      1,
	}
}

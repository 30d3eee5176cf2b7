package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"
)

// Default 返回带默认值的配置，配置文件中缺失的项沿用这些值
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		DB:     DBConfig{MaxIdle: 10, MaxOpen: 50, MaxLifetime: 30},
		Redis:  RedisConfig{Addr: "localhost:6379", PoolSize: 20},
		JWT:    JWTConfig{Issuer: "CraveQuest"},
		Log:    LogConfig{Level: "info"},
		Kafka: KafkaConfig{
			Consumer: ConsumerConfig{
				SessionTimeout:    10,
				HeartbeatInterval: 3,
				RebalanceTimeout:  60,
				MaxProcessingTime: 1,
			},
		},
		Value: ValueConfig{
			MinSamples:        3,
			SaturationSamples: 10,
			Weights: WeightsConfig{
				Taste:  0.40,
				Health: 0.20,
				Time:   0.15,
				Effort: 0.15,
				Cost:   0.10,
			},
		},
		Ranking: RankingConfig{
			MaxEntries:              100,
			DefaultPageSize:         20,
			MaxPageSize:             100,
			FetchConcurrency:        8,
			HighTrustConfidence:     0.5,
			HighTrustPeriods:        []string{"allTime"},
			OverallValueWeight:      0.6,
			OverallEngagementWeight: 0.4,
			EngagementScale:         25,
			InteractionWeights: InteractionWeightsConfig{
				View:  1,
				Save:  3,
				Cook:  5,
				Rate:  2,
				Share: 4,
				Hide:  0,
			},
			Periods: PeriodsConfig{
				Today:   PeriodConfig{Window: 24 * time.Hour, HalfLife: 6 * time.Hour, TTL: 5 * time.Minute},
				Week:    PeriodConfig{Window: 7 * 24 * time.Hour, HalfLife: 2 * 24 * time.Hour, TTL: 15 * time.Minute},
				Month:   PeriodConfig{Window: 30 * 24 * time.Hour, HalfLife: 7 * 24 * time.Hour, TTL: time.Hour},
				Year:    PeriodConfig{Window: 365 * 24 * time.Hour, HalfLife: 60 * 24 * time.Hour, TTL: 6 * time.Hour},
				AllTime: PeriodConfig{Window: 0, HalfLife: 365 * 24 * time.Hour, TTL: 12 * time.Hour},
			},
		},
		Trend: TrendConfig{
			Window:       24 * time.Hour,
			MinCount:     5,
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Cache: CacheConfig{
			ValueTTL:       10 * time.Minute,
			ComputeTimeout: 5 * time.Second,
			StaleRetention: 24 * time.Hour,
			LockTTL:        10 * time.Second,
			LockRetry:      10,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				Timeout:          30 * time.Second,
			},
		},
		Cron: CronConfig{
			HotRefresh:         "0 * * * * *",
			DirtyInvalidate:    "*/30 * * * * *",
			HotKeys:            []string{"today:overall", "today:value", "week:overall"},
			RefreshConcurrency: 4,
			RefreshRetries:     3,
		},
	}
}

// LoadConfig 从 dir/config.yaml 加载配置
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验相互约束的配置项
func (c *Config) Validate() error {
	if math.Abs(c.Value.Weights.Sum()-1) > 1e-6 {
		return fmt.Errorf("value weights must sum to 1, got %.4f", c.Value.Weights.Sum())
	}
	if c.Value.MinSamples < 1 {
		return errors.New("value.min_samples must be at least 1")
	}
	if c.Value.SaturationSamples < c.Value.MinSamples {
		return errors.New("value.saturation_samples must not be less than value.min_samples")
	}
	if math.Abs(c.Ranking.OverallValueWeight+c.Ranking.OverallEngagementWeight-1) > 1e-6 {
		return errors.New("ranking overall weights must sum to 1")
	}
	if c.Ranking.EngagementScale <= 0 {
		return errors.New("ranking.engagement_scale must be positive")
	}
	if c.Ranking.MaxEntries <= 0 {
		return errors.New("ranking.max_entries must be positive")
	}
	if c.Trend.Window <= 0 {
		return errors.New("trend.window must be positive")
	}
	if c.Cache.ComputeTimeout <= 0 {
		return errors.New("cache.compute_timeout must be positive")
	}
	return nil
}

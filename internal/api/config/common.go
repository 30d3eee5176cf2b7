package config

import (
	"CraveQuest/internal/model"
	"time"
)

// Config 配置主体
type Config struct {
	Server                    ServerConfig       `mapstructure:"server"`
	DB                        DBConfig           `mapstructure:"database"`
	Redis                     RedisConfig        `mapstructure:"redis"`
	JWT                       JWTConfig          `mapstructure:"jwt"`
	Log                       LogConfig          `mapstructure:"log"`
	Kafka                     KafkaConfig        `mapstructure:"kafka"`
	KafkaInteractionConsumer  KafkaTopicConsumer `mapstructure:"kafka_interaction_consumer"`
	KafkaModificationConsumer KafkaTopicConsumer `mapstructure:"kafka_modification_consumer"`
	KafkaRecipeConsumer       KafkaTopicConsumer `mapstructure:"kafka_recipe_consumer"`
	KafkaRatingConsumer       KafkaTopicConsumer `mapstructure:"kafka_rating_consumer"`
	Value                     ValueConfig        `mapstructure:"value"`
	Ranking                   RankingConfig      `mapstructure:"ranking"`
	Trend                     TrendConfig        `mapstructure:"trend"`
	Cache                     CacheConfig        `mapstructure:"cache"`
	Cron                      CronConfig         `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Version  string         `mapstructure:"version"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`

	// oldest 从最早位点开始消费，其余按 newest 处理
	InitialOffset string `mapstructure:"initial_offset"`
}

type KafkaTopicConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ValueConfig 价值分计算参数
type ValueConfig struct {
	MinSamples        int64         `mapstructure:"min_samples"`
	SaturationSamples int64         `mapstructure:"saturation_samples"`
	Weights           WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig SimpleValue 模式五个维度的权重，总和必须为 1
type WeightsConfig struct {
	Taste  float64 `mapstructure:"taste"`
	Health float64 `mapstructure:"health"`
	Time   float64 `mapstructure:"time"`
	Effort float64 `mapstructure:"effort"`
	Cost   float64 `mapstructure:"cost"`
}

func (w WeightsConfig) Sum() float64 {
	return w.Taste + w.Health + w.Time + w.Effort + w.Cost
}

// RankingConfig 排行榜参数
type RankingConfig struct {
	MaxEntries              int                      `mapstructure:"max_entries"`
	DefaultPageSize         int                      `mapstructure:"default_page_size"`
	MaxPageSize             int                      `mapstructure:"max_page_size"`
	FetchConcurrency        int                      `mapstructure:"fetch_concurrency"`
	HighTrustConfidence     float64                  `mapstructure:"high_trust_confidence"`
	HighTrustPeriods        []string                 `mapstructure:"high_trust_periods"`
	OverallValueWeight      float64                  `mapstructure:"overall_value_weight"`
	OverallEngagementWeight float64                  `mapstructure:"overall_engagement_weight"`
	EngagementScale         float64                  `mapstructure:"engagement_scale"`
	InteractionWeights      InteractionWeightsConfig `mapstructure:"interaction_weights"`
	Periods                 PeriodsConfig            `mapstructure:"periods"`
}

// IsHighTrust 该时间范围是否只收录置信度足够的分数
func (c RankingConfig) IsHighTrust(p model.Period) bool {
	for _, v := range c.HighTrustPeriods {
		if model.Period(v) == p {
			return true
		}
	}
	return false
}

type InteractionWeightsConfig struct {
	View  float64 `mapstructure:"view"`
	Save  float64 `mapstructure:"save"`
	Cook  float64 `mapstructure:"cook"`
	Rate  float64 `mapstructure:"rate"`
	Share float64 `mapstructure:"share"`
	Hide  float64 `mapstructure:"hide"`
}

// Of 返回交互类型的权重，未知类型为 0
func (w InteractionWeightsConfig) Of(t model.InteractionType) float64 {
	switch t {
	case model.InteractionView:
		return w.View
	case model.InteractionSave:
		return w.Save
	case model.InteractionCook:
		return w.Cook
	case model.InteractionRate:
		return w.Rate
	case model.InteractionShare:
		return w.Share
	case model.InteractionHide:
		return w.Hide
	default:
		return 0
	}
}

// PeriodConfig 单个时间范围：统计窗口、衰减半衰期、缓存 TTL
// Window 为 0 表示不限制时间
type PeriodConfig struct {
	Window   time.Duration `mapstructure:"window"`
	HalfLife time.Duration `mapstructure:"half_life"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PeriodsConfig struct {
	Today   PeriodConfig `mapstructure:"today"`
	Week    PeriodConfig `mapstructure:"week"`
	Month   PeriodConfig `mapstructure:"month"`
	Year    PeriodConfig `mapstructure:"year"`
	AllTime PeriodConfig `mapstructure:"all_time"`
}

func (p PeriodsConfig) For(period model.Period) PeriodConfig {
	switch period {
	case model.PeriodToday:
		return p.Today
	case model.PeriodWeek:
		return p.Week
	case model.PeriodMonth:
		return p.Month
	case model.PeriodYear:
		return p.Year
	default:
		return p.AllTime
	}
}

// TrendConfig 趋势统计参数
type TrendConfig struct {
	Window       time.Duration `mapstructure:"window"`
	MinCount     int64         `mapstructure:"min_count"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
}

// CacheConfig 缓存协调参数
type CacheConfig struct {
	ValueTTL        time.Duration `mapstructure:"value_ttl"`
	ComputeTimeout  time.Duration `mapstructure:"compute_timeout"`
	StaleRetention  time.Duration `mapstructure:"stale_retention"`
	DistributedLock bool          `mapstructure:"distributed_lock"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	LockRetry       int           `mapstructure:"lock_retry"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enable           bool          `mapstructure:"enable"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CronConfig 定时任务
type CronConfig struct {
	HotRefresh         string   `mapstructure:"hot_refresh"`
	DirtyInvalidate    string   `mapstructure:"dirty_invalidate"`
	HotKeys            []string `mapstructure:"hot_keys"`
	RefreshConcurrency int      `mapstructure:"refresh_concurrency"`
	RefreshRetries     int      `mapstructure:"refresh_retries"`
}

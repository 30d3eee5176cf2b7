package consts

const (
	RankingKeyPrefix    = "ranking:"
	ValueKeyPrefix      = "value:"
	RankingBaselineKey  = "baseline:ranking:"
	TrendBucketKey      = "trend:bucket:"
	RankingDirtyKey     = "dirty:ranking:recipes"
	RankingDirtyProcKey = RankingDirtyKey + ":processing"
)

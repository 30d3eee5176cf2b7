package wire

import (
	"CraveQuest/internal/api"
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/api/handler"
	"CraveQuest/internal/job"
	"CraveQuest/internal/pkg/cache"
	"CraveQuest/internal/pkg/consts"
	"CraveQuest/internal/pkg/cron"
	"CraveQuest/internal/pkg/kafka"
	"CraveQuest/internal/pkg/metrics"
	"CraveQuest/internal/pkg/redis"
	"CraveQuest/internal/pkg/security"
	"CraveQuest/internal/pkg/taskqueue"
	"CraveQuest/internal/repository"
	"CraveQuest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Redis        *redis.Client
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*ApplicationContainer, error) {
	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(registry); err != nil {
		return nil, err
	}

	// 缓存
	coordOpts := []cache.Option{
		cache.WithMetrics(m),
		cache.WithPassthrough(service.IsInputError),
	}
	if cfg.Cache.DistributedLock {
		coordOpts = append(coordOpts, cache.WithLocker(rdb))
	}
	coord := cache.NewCoordinator(cfg.Cache, redis.NewCacheBackend(rdb), coordOpts...)
	dirtySet := redis.NewDirtySet(rdb, consts.RankingDirtyKey, consts.RankingDirtyProcKey)

	// 仓储
	recipeRepo := repository.NewRecipeRepository(db)
	ratingRepo := repository.NewRatingRepository(db)

	// 服务
	calc, err := service.NewValueCalculator(cfg.Value)
	if err != nil {
		return nil, err
	}
	engine := service.NewRankingEngine(recipeRepo, ratingRepo, calc, redis.NewBaselineStore(rdb), cfg.Ranking)
	aggregator := service.NewTrendAggregator(redis.NewTrendCounters(rdb), cfg.Trend)

	valueService := service.NewValueService(recipeRepo, ratingRepo, calc, coord, cfg.Cache)
	rankingService := service.NewRankingService(engine, coord, cfg.Ranking)
	trendService := service.NewTrendService(recipeRepo, aggregator, cfg.Trend)
	ratingService := service.NewRatingService(recipeRepo, ratingRepo, valueService)

	// HTTP
	tokens, err := security.NewTokenManager(cfg.JWT)
	if err != nil {
		return nil, err
	}
	handlers := &api.HandlersGroup{
		RankingHandler: handler.NewRankingHandler(rankingService),
		ValueHandler:   handler.NewValueHandler(valueService),
		TrendHandler:   handler.NewTrendHandler(trendService),
		RatingHandler:  handler.NewRatingHandler(ratingService),
	}
	router := api.SetupRouter(handlers, tokens, registry)

	// Kafka
	var kafkaMgr *kafka.ConsumerManager
	if cfg.Kafka.Enable {
		kafkaMgr, err = kafka.NewConsumerManager(cfg, trendService, valueService, ratingService, dirtySet, m)
		if err != nil {
			return nil, err
		}
	}

	// 定时任务
	queue := taskqueue.New(cfg.Cron.RefreshConcurrency, cfg.Cron.RefreshRetries)
	hotRefreshJob, err := job.NewHotSnapshotRefreshJob(rankingService, queue, cfg.Cron.HotKeys, m)
	if err != nil {
		return nil, err
	}
	rankingDirtyJob := job.NewRankingDirtyJob(rankingService, dirtySet, m)
	cronMgr := cron.NewCronManager(cfg.Cron, hotRefreshJob, rankingDirtyJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Redis:        rdb,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}

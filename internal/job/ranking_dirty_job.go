package job

import (
	"CraveQuest/internal/pkg/logger"
	"CraveQuest/internal/pkg/metrics"
	"CraveQuest/internal/service"
	"context"
	log "log/slog"
	"time"
)

const dirtyJobTimeout = 30 * time.Second

// DirtyQueue 由 redis.DirtySet 实现
type DirtyQueue interface {
	Drain(ctx context.Context) ([]uint64, error)
	Ack(ctx context.Context) error
}

// RankingDirtyJob 有菜谱在上个周期内被改动时，让所有已缓存的排行失效
type RankingDirtyJob struct {
	rankingSvc service.RankingService
	dirty      DirtyQueue
	metrics    *metrics.Metrics
}

func NewRankingDirtyJob(rankingSvc service.RankingService, dirty DirtyQueue, m *metrics.Metrics) *RankingDirtyJob {
	return &RankingDirtyJob{rankingSvc: rankingSvc, dirty: dirty, metrics: m}
}

func (s *RankingDirtyJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTrace(context.Background(), "job-ranking-dirty"), dirtyJobTimeout)
	defer cancel()

	status := "ok"
	if err := s.run(ctx); err != nil {
		status = "error"
		log.ErrorContext(ctx, "ranking dirty job failed", "err", err)
	}
	s.metrics.IncJobRun("ranking_dirty", status)
}

func (s *RankingDirtyJob) run(ctx context.Context) error {
	recipeIDs, err := s.dirty.Drain(ctx)
	if err != nil {
		return err
	}
	if len(recipeIDs) == 0 {
		return nil
	}

	// 失效失败时不 Ack，下个周期重试同一批
	if err = s.rankingSvc.InvalidateRankings(ctx); err != nil {
		return err
	}
	if err = s.dirty.Ack(ctx); err != nil {
		return err
	}

	log.InfoContext(ctx, "rankings invalidated", "recipe_count", len(recipeIDs))
	return nil
}

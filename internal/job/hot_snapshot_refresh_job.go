package job

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/logger"
	"CraveQuest/internal/pkg/metrics"
	"CraveQuest/internal/pkg/taskqueue"
	"CraveQuest/internal/service"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"
)

const hotRefreshTimeout = 50 * time.Second

// HotSnapshotRefreshJob 定期重算热门榜单，读请求基本只命中缓存
type HotSnapshotRefreshJob struct {
	rankingSvc service.RankingService
	queue      *taskqueue.Queue
	keys       []model.RankingKey
	metrics    *metrics.Metrics
}

// NewHotSnapshotRefreshJob keys 形如 today:overall，无法解析的配置直接报错
func NewHotSnapshotRefreshJob(
	rankingSvc service.RankingService,
	queue *taskqueue.Queue,
	hotKeys []string,
	m *metrics.Metrics,
) (*HotSnapshotRefreshJob, error) {
	keys := make([]model.RankingKey, 0, len(hotKeys))
	for _, s := range hotKeys {
		key, ok := model.ParseRankingKey(s)
		if !ok {
			return nil, fmt.Errorf("invalid hot ranking key %q", s)
		}
		keys = append(keys, key)
	}
	return &HotSnapshotRefreshJob{
		rankingSvc: rankingSvc,
		queue:      queue,
		keys:       keys,
		metrics:    m,
	}, nil
}

func (s *HotSnapshotRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTrace(context.Background(), "job-hot-refresh"), hotRefreshTimeout)
	defer cancel()

	status := "ok"
	if err := s.run(ctx); err != nil {
		status = "error"
		log.ErrorContext(ctx, "hot snapshot refresh failed", "err", err)
	}
	s.metrics.IncJobRun("hot_refresh", status)
}

func (s *HotSnapshotRefreshJob) run(ctx context.Context) error {
	tasks := make([]taskqueue.Task, 0, len(s.keys))
	for _, key := range s.keys {
		tasks = append(tasks, taskqueue.Task{
			Name: key.String(),
			Run: func(ctx context.Context) error {
				err := s.rankingSvc.RefreshSnapshot(ctx, key)
				if errors.Is(err, service.ErrParamInvalid) {
					return taskqueue.Permanent(err)
				}
				return err
			},
		})
	}

	start := time.Now()
	err := s.queue.RunAll(ctx, tasks)
	log.InfoContext(ctx, "hot snapshots refreshed", "keys", len(tasks), "cost", time.Since(start), "failed", err != nil)
	return err
}

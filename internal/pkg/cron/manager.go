package cron

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/job"
	"context"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	cfg             config.CronConfig
	hotRefreshJob   *job.HotSnapshotRefreshJob
	rankingDirtyJob *job.RankingDirtyJob
}

func NewCronManager(cfg config.CronConfig, hotRefreshJob *job.HotSnapshotRefreshJob, rankingDirtyJob *job.RankingDirtyJob) *Manager {
	return &Manager{
		// 上一次还没跑完时跳过本次触发
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		cfg:             cfg,
		hotRefreshJob:   hotRefreshJob,
		rankingDirtyJob: rankingDirtyJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.cfg.HotRefresh, s.hotRefreshJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob(s.cfg.DirtyInvalidate, s.rankingDirtyJob); err != nil {
		return err
	}
	return nil
}

// Start 注册任务并启动调度
func (s *Manager) Start() error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}
	log.Info("Cron 定时任务引擎启动", "jobs", len(s.engine.Entries()))
	s.engine.Start()
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Manager) Stop() context.Context {
	log.Info("Cron 定时任务引擎停止")
	return s.engine.Stop()
}

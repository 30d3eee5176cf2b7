package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"CraveQuest/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// SnapshotComputer 由 RankingEngine 实现
type SnapshotComputer interface {
	Compute(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, error)
}

// RankingPage 排行榜的一页
type RankingPage struct {
	Key        model.RankingKey      `json:"key"`
	ComputedAt time.Time             `json:"computed_at"`
	Stale      bool                  `json:"stale"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Total      int                   `json:"total"`
	Entries    []*model.RankingEntry `json:"entries"`
}

type RankingService interface {
	GetRanking(ctx context.Context, period model.Period, rankingType model.RankingType, page, limit int) (*RankingPage, error)
	GetSnapshot(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, bool, error)
	RefreshSnapshot(ctx context.Context, key model.RankingKey) error
	InvalidateRankings(ctx context.Context) error
}

type rankingServiceImpl struct {
	engine SnapshotComputer
	coord  *cache.Coordinator
	cfg    config.RankingConfig
}

func NewRankingService(engine SnapshotComputer, coord *cache.Coordinator, cfg config.RankingConfig) RankingService {
	return &rankingServiceImpl{
		engine: engine,
		coord:  coord,
		cfg:    cfg,
	}
}

func (s *rankingServiceImpl) GetRanking(ctx context.Context, period model.Period, rankingType model.RankingType, page, limit int) (*RankingPage, error) {
	key := model.RankingKey{Period: period, Type: rankingType}
	if !period.Valid() || !rankingType.Valid() {
		return nil, fmt.Errorf("%w: ranking %s", ErrParamInvalid, key)
	}
	page, limit = s.normalizePage(page, limit)

	pageKey := rankingPageKey(key, page, limit)
	if p, ok := cache.Lookup[*RankingPage](ctx, s.coord, pageKey); ok {
		return p, nil
	}

	snap, res, err := s.snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	p := paginate(snap, page, limit, res.Stale)
	// 分页沿用快照的版本和过期时间，旧快照切出的分页不入缓存
	if err := cache.Store(ctx, s.coord, pageKey, p, res); err != nil {
		log.WarnContext(ctx, "Cache ranking page failed", "key", pageKey, "err", err)
	}
	return p, nil
}

// GetSnapshot 返回完整快照，第二个返回值表示是否为旧数据
func (s *rankingServiceImpl) GetSnapshot(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, bool, error) {
	snap, res, err := s.snapshot(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return snap, res.Stale, nil
}

// RefreshSnapshot 强制重算完整快照
// 先让该榜单的分页失效，重算期间基于旧快照切出的分页无法再写入
func (s *rankingServiceImpl) RefreshSnapshot(ctx context.Context, key model.RankingKey) error {
	if !key.Period.Valid() || !key.Type.Valid() {
		return fmt.Errorf("%w: ranking %s", ErrParamInvalid, key)
	}
	if err := s.coord.Invalidate(ctx, rankingPagePrefix(key)); err != nil {
		return err
	}
	_, res, err := cache.Reload(ctx, s.coord, rankingSnapshotKey(key), s.ttl(key.Period), s.compute(key))
	if err != nil {
		return err
	}
	if res.Stale {
		return fmt.Errorf("%w: ranking %s computed at %s", ErrRefreshStale, key, res.ComputedAt.Format(time.RFC3339))
	}
	return nil
}

func (s *rankingServiceImpl) InvalidateRankings(ctx context.Context) error {
	return s.coord.Invalidate(ctx, consts.RankingKeyPrefix)
}

func (s *rankingServiceImpl) snapshot(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, cache.Result, error) {
	return cache.Fetch(ctx, s.coord, rankingSnapshotKey(key), s.ttl(key.Period), s.compute(key))
}

func (s *rankingServiceImpl) compute(key model.RankingKey) func(ctx context.Context) (*model.RankingSnapshot, error) {
	return func(ctx context.Context) (*model.RankingSnapshot, error) {
		return s.engine.Compute(ctx, key)
	}
}

func (s *rankingServiceImpl) ttl(period model.Period) time.Duration {
	return s.cfg.Periods.For(period).TTL
}

func (s *rankingServiceImpl) normalizePage(page, limit int) (int, int) {
	if page < consts.DefaultPage {
		page = consts.DefaultPage
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	return page, limit
}

func paginate(snap *model.RankingSnapshot, page, limit int, stale bool) *RankingPage {
	total := len(snap.Entries)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return &RankingPage{
		Key:        snap.Key,
		ComputedAt: snap.ComputedAt,
		Stale:      stale,
		Page:       page,
		Limit:      limit,
		Total:      total,
		Entries:    snap.Entries[start:end],
	}
}

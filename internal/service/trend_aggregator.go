package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// bucketsRetained 当前窗口、上一窗口，外加一个用于跨越边界时的读取
const bucketsRetained = 3

// TrendStore 窗口桶计数存储
type TrendStore interface {
	Incr(ctx context.Context, dimension string, bucket int64, key string, ttl time.Duration) error
	Counts(ctx context.Context, dimension string, bucket int64) (map[string]int64, int64, error)
}

// TrendAggregator 固定窗口计数，比较当前窗口与上一窗口得到增长率
type TrendAggregator struct {
	store TrendStore
	cfg   config.TrendConfig
	now   func() time.Time
}

func NewTrendAggregator(store TrendStore, cfg config.TrendConfig) *TrendAggregator {
	return &TrendAggregator{store: store, cfg: cfg, now: time.Now}
}

// Record 事件计入其发生时间所在的窗口
func (a *TrendAggregator) Record(ctx context.Context, ev model.TrendEvent) error {
	if !ev.Dimension.Valid() {
		return fmt.Errorf("%w: dimension %q", ErrParamInvalid, ev.Dimension)
	}
	key := normalizeTrendKey(ev.Key)
	if key == "" {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = a.now()
	}
	return a.store.Incr(ctx, string(ev.Dimension), a.bucketOf(at), key, bucketsRetained*a.cfg.Window)
}

// Trending 增长最快的 key，当前窗口计数需达到 min_count
func (a *TrendAggregator) Trending(ctx context.Context, dimension model.TrendDimension, limit int) ([]*model.TrendRecord, error) {
	records, err := a.records(ctx, dimension)
	if err != nil {
		return nil, err
	}
	records = slices.DeleteFunc(records, func(r *model.TrendRecord) bool {
		return r.CountCurrent < a.cfg.MinCount || r.GrowthRate <= 0
	})
	slices.SortFunc(records, func(x, y *model.TrendRecord) int {
		if c := cmp.Compare(y.GrowthRate, x.GrowthRate); c != 0 {
			return c
		}
		if c := cmp.Compare(y.CountCurrent, x.CountCurrent); c != 0 {
			return c
		}
		return strings.Compare(x.Key, y.Key)
	})
	return head(records, limit), nil
}

// Falling 下降最快的 key，上一窗口计数需达到 min_count
func (a *TrendAggregator) Falling(ctx context.Context, dimension model.TrendDimension, limit int) ([]*model.TrendRecord, error) {
	records, err := a.records(ctx, dimension)
	if err != nil {
		return nil, err
	}
	records = slices.DeleteFunc(records, func(r *model.TrendRecord) bool {
		return r.CountPrior < a.cfg.MinCount || r.GrowthRate >= 0
	})
	slices.SortFunc(records, func(x, y *model.TrendRecord) int {
		if c := cmp.Compare(x.GrowthRate, y.GrowthRate); c != 0 {
			return c
		}
		if c := cmp.Compare(y.CountPrior, x.CountPrior); c != 0 {
			return c
		}
		return strings.Compare(x.Key, y.Key)
	})
	return head(records, limit), nil
}

// records 上一窗口计数按总量变化缩放后再比较，排除整体流量涨落的影响
func (a *TrendAggregator) records(ctx context.Context, dimension model.TrendDimension) ([]*model.TrendRecord, error) {
	if !dimension.Valid() {
		return nil, fmt.Errorf("%w: dimension %q", ErrParamInvalid, dimension)
	}
	bucket := a.bucketOf(a.now())
	cur, totalCur, err := a.store.Counts(ctx, string(dimension), bucket)
	if err != nil {
		return nil, fmt.Errorf("read trend bucket: %w", err)
	}
	prior, totalPrior, err := a.store.Counts(ctx, string(dimension), bucket-1)
	if err != nil {
		return nil, fmt.Errorf("read prior trend bucket: %w", err)
	}

	scale := 1.0
	if totalCur > 0 && totalPrior > 0 {
		scale = float64(totalCur) / float64(totalPrior)
	}

	start := time.Unix(0, bucket*int64(a.cfg.Window)).UTC()
	end := start.Add(a.cfg.Window)

	records := make([]*model.TrendRecord, 0, len(cur)+len(prior))
	seen := make(map[string]struct{}, len(cur)+len(prior))
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		records = append(records, &model.TrendRecord{
			Dimension:    dimension,
			Key:          key,
			WindowStart:  start,
			WindowEnd:    end,
			CountCurrent: cur[key],
			CountPrior:   prior[key],
			GrowthRate:   growthRate(cur[key], prior[key], scale),
		})
	}
	for key := range cur {
		add(key)
	}
	for key := range prior {
		add(key)
	}
	return records, nil
}

func (a *TrendAggregator) bucketOf(t time.Time) int64 {
	return t.UnixNano() / int64(a.cfg.Window)
}

func growthRate(current, prior int64, scale float64) float64 {
	expected := float64(prior) * scale
	return round4((float64(current) - expected) / math.Max(expected, 1))
}

func normalizeTrendKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func head(records []*model.TrendRecord, limit int) []*model.TrendRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

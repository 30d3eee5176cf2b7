package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/repository"
	"cmp"
	"context"
	"fmt"
	log "log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BaselineStore 保存上一次发布的快照，用于计算名次变化
type BaselineStore interface {
	Load(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, error)
	Save(ctx context.Context, snap *model.RankingSnapshot) error
}

// RankingEngine 计算某个 (period, type) 的排行榜快照
// 每次调用都会推进基线，应由缓存协调器保证同一 key 同一时刻只触发一次
type RankingEngine struct {
	recipeRepo repository.RecipeRepo
	ratingRepo repository.RatingRepo
	calc       *ValueCalculator
	baseline   BaselineStore
	cfg        config.RankingConfig
	now        func() time.Time
}

func NewRankingEngine(
	recipeRepo repository.RecipeRepo,
	ratingRepo repository.RatingRepo,
	calc *ValueCalculator,
	baseline BaselineStore,
	cfg config.RankingConfig,
) *RankingEngine {
	return &RankingEngine{
		recipeRepo: recipeRepo,
		ratingRepo: ratingRepo,
		calc:       calc,
		baseline:   baseline,
		cfg:        cfg,
		now:        time.Now,
	}
}

type candidate struct {
	recipeID   uint64
	score      float64
	confidence float64
	createdAt  time.Time
}

// Compute 收集 -> 打分 -> 排序 -> 计算名次变化 -> 发布基线
func (e *RankingEngine) Compute(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, error) {
	if !key.Period.Valid() || !key.Type.Valid() {
		return nil, fmt.Errorf("%w: ranking %s", ErrParamInvalid, key)
	}
	now := e.now()
	pc := e.cfg.Periods.For(key.Period)

	candidates, err := e.collect(ctx, key, pc, now)
	if err != nil {
		return nil, err
	}

	if e.cfg.IsHighTrust(key.Period) {
		candidates = slices.DeleteFunc(candidates, func(c *candidate) bool {
			return c.confidence < e.cfg.HighTrustConfidence
		})
	}

	sortCandidates(candidates)
	if len(candidates) > e.cfg.MaxEntries {
		candidates = candidates[:e.cfg.MaxEntries]
	}

	prev, err := e.baseline.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load ranking baseline %s: %w", key, err)
	}

	snap := &model.RankingSnapshot{
		Key:        key,
		ComputedAt: now,
		Entries:    make([]*model.RankingEntry, 0, len(candidates)),
	}
	for i, c := range candidates {
		entry := &model.RankingEntry{
			RecipeID:  c.recipeID,
			Score:     c.score,
			Rank:      i + 1,
			CreatedAt: c.createdAt,
		}
		classifyDelta(entry, prev.RankOf(c.recipeID))
		snap.Entries = append(snap.Entries, entry)
	}

	if err := e.baseline.Save(ctx, snap); err != nil {
		log.WarnContext(ctx, "save ranking baseline failed", "key", key.String(), "err", err)
	}

	log.InfoContext(ctx, "ranking snapshot computed", "key", key.String(), "entries", len(snap.Entries))
	return snap, nil
}

func (e *RankingEngine) collect(ctx context.Context, key model.RankingKey, pc config.PeriodConfig, now time.Time) ([]*candidate, error) {
	var since time.Time
	if pc.Window > 0 {
		since = now.Add(-pc.Window)
	}

	ids, err := e.recipeRepo.ListInteractedRecipeIDs(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list interacted recipes: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	recipes, err := e.recipeRepo.GetRecipes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get recipes: %w", err)
	}
	aggs, err := e.ratingRepo.GetAggregates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get rating aggregates: %w", err)
	}

	var volumes map[uint64]float64
	if key.Type == model.RankingOverall {
		if volumes, err = e.decayedVolumes(ctx, ids, since, pc.HalfLife, now); err != nil {
			return nil, err
		}
	}

	candidates := make([]*candidate, 0, len(recipes))
	for _, r := range recipes {
		c, err := e.score(key.Type, r, aggs[r.ID], volumes[r.ID])
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (e *RankingEngine) score(t model.RankingType, r *model.Recipe, agg *model.RatingAggregate, volume float64) (*candidate, error) {
	mode := model.ModeSimpleValue
	if t == model.RankingTaste {
		mode = model.ModeTasteOnly
	}
	vs, err := e.calc.ComputeFromAggregate(r.ID, mode, agg)
	if err != nil {
		return nil, err
	}

	score := vs.Score
	if t == model.RankingOverall {
		score = e.cfg.OverallValueWeight*vs.Score + e.cfg.OverallEngagementWeight*e.engagement(volume)
	}
	return &candidate{
		recipeID:   r.ID,
		score:      round4(clamp(score, 0, 100)),
		confidence: vs.Confidence,
		createdAt:  r.CreatedAt,
	}, nil
}

// engagement 衰减后的交互量映射到 0-100，交互越多越接近 100
func (e *RankingEngine) engagement(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return 100 * (1 - math.Exp(-volume/e.cfg.EngagementScale))
}

// decayedVolumes 并发拉取每个菜谱的交互记录，按类型权重与时间衰减求和
func (e *RankingEngine) decayedVolumes(ctx context.Context, ids []uint64, since time.Time, halfLife time.Duration, now time.Time) (map[uint64]float64, error) {
	var mu sync.Mutex
	volumes := make(map[uint64]float64, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.FetchConcurrency, 1))
	for _, id := range ids {
		g.Go(func() error {
			interactions, err := e.recipeRepo.ListInteractionsSince(gctx, id, since)
			if err != nil {
				return fmt.Errorf("list interactions of recipe %d: %w", id, err)
			}
			v := decayedVolume(interactions, e.cfg.InteractionWeights, halfLife, now)
			mu.Lock()
			volumes[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return volumes, nil
}

func decayedVolume(interactions []*model.Interaction, weights config.InteractionWeightsConfig, halfLife time.Duration, now time.Time) float64 {
	var volume float64
	for _, it := range interactions {
		w := weights.Of(it.Type)
		if w == 0 {
			continue
		}
		age := now.Sub(it.CreatedAt)
		if age < 0 {
			age = 0
		}
		decay := 1.0
		if halfLife > 0 {
			decay = math.Exp(-float64(age) / float64(halfLife))
		}
		volume += w * decay
	}
	return volume
}

// sortCandidates 分数降序，同分时创建更早的在前，再按 id 升序
func sortCandidates(candidates []*candidate) {
	slices.SortFunc(candidates, func(a, b *candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.recipeID, b.recipeID)
	})
}

// classifyDelta prevRank 为 0 表示上一期未上榜
func classifyDelta(entry *model.RankingEntry, prevRank int) {
	entry.PreviousRank = prevRank
	switch {
	case prevRank == 0:
		entry.Delta = model.DeltaNew
	case prevRank > entry.Rank:
		entry.Delta = model.DeltaUp
		entry.Movement = prevRank - entry.Rank
	case prevRank < entry.Rank:
		entry.Delta = model.DeltaDown
		entry.Movement = entry.Rank - prevRank
	default:
		entry.Delta = model.DeltaSteady
	}
}

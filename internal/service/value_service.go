package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"CraveQuest/internal/pkg/consts"
	"CraveQuest/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

type ValueService interface {
	GetValueScore(ctx context.Context, recipeID uint64, mode model.ScoreMode) (*model.ValueScore, bool, error)
	InvalidateRecipe(ctx context.Context, recipeID uint64) error
}

type valueServiceImpl struct {
	recipeRepo repository.RecipeRepo
	ratingRepo repository.RatingRepo
	calc       *ValueCalculator
	coord      *cache.Coordinator
	ttl        time.Duration
}

func NewValueService(
	recipeRepo repository.RecipeRepo,
	ratingRepo repository.RatingRepo,
	calc *ValueCalculator,
	coord *cache.Coordinator,
	cfg config.CacheConfig,
) ValueService {
	return &valueServiceImpl{
		recipeRepo: recipeRepo,
		ratingRepo: ratingRepo,
		calc:       calc,
		coord:      coord,
		ttl:        cfg.ValueTTL,
	}
}

// GetValueScore 第二个返回值表示是否为降级返回的旧数据
func (s *valueServiceImpl) GetValueScore(ctx context.Context, recipeID uint64, mode model.ScoreMode) (*model.ValueScore, bool, error) {
	if mode != model.ModeTasteOnly && mode != model.ModeSimpleValue {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	score, res, err := cache.Fetch(ctx, s.coord, valueKey(recipeID, mode), s.ttl,
		func(ctx context.Context) (*model.ValueScore, error) {
			recipe, err := s.recipeRepo.GetRecipe(ctx, recipeID)
			if err != nil {
				return nil, err
			}
			if recipe == nil {
				return nil, ErrRecipeNotFound
			}
			agg, err := s.ratingRepo.GetAggregate(ctx, recipeID)
			if err != nil {
				return nil, err
			}
			return s.calc.ComputeFromAggregate(recipeID, mode, agg)
		})
	if err != nil {
		return nil, false, err
	}
	return score, res.Stale, nil
}

// InvalidateRecipe 菜谱评分或内容变化后，失效其价值分与全部排行榜
func (s *valueServiceImpl) InvalidateRecipe(ctx context.Context, recipeID uint64) error {
	return errors.Join(
		s.coord.Invalidate(ctx, valuePrefix(recipeID)),
		s.coord.Invalidate(ctx, consts.RankingKeyPrefix),
	)
}

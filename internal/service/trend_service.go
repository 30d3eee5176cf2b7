package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

type TrendService interface {
	RecordInteraction(ctx context.Context, recipeID uint64, at time.Time) error
	RecordModification(ctx context.Context, modificationType string, at time.Time) error
	GetTrends(ctx context.Context, dimension model.TrendDimension, direction model.TrendDirection, limit int) ([]*model.TrendRecord, error)
}

type trendServiceImpl struct {
	recipeRepo repository.RecipeRepo
	aggregator *TrendAggregator
	cfg        config.TrendConfig
}

func NewTrendService(recipeRepo repository.RecipeRepo, aggregator *TrendAggregator, cfg config.TrendConfig) TrendService {
	return &trendServiceImpl{
		recipeRepo: recipeRepo,
		aggregator: aggregator,
		cfg:        cfg,
	}
}

// RecordInteraction 一次交互计入菜谱分类及其每个食材
func (s *trendServiceImpl) RecordInteraction(ctx context.Context, recipeID uint64, at time.Time) error {
	recipe, err := s.recipeRepo.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe == nil {
		return nil
	}

	events := make([]model.TrendEvent, 0, len(recipe.Ingredients)+1)
	events = append(events, model.TrendEvent{Dimension: model.TrendCategory, Key: recipe.Category, At: at})
	for _, ingredient := range recipe.Ingredients {
		events = append(events, model.TrendEvent{Dimension: model.TrendIngredient, Key: ingredient, At: at})
	}

	var errs []error
	for _, ev := range events {
		if err := s.aggregator.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *trendServiceImpl) RecordModification(ctx context.Context, modificationType string, at time.Time) error {
	return s.aggregator.Record(ctx, model.TrendEvent{
		Dimension: model.TrendModification,
		Key:       modificationType,
		At:        at,
	})
}

func (s *trendServiceImpl) GetTrends(ctx context.Context, dimension model.TrendDimension, direction model.TrendDirection, limit int) ([]*model.TrendRecord, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	switch direction {
	case model.TrendRising, "":
		return s.aggregator.Trending(ctx, dimension, limit)
	case model.TrendFalling:
		return s.aggregator.Falling(ctx, dimension, limit)
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrParamInvalid, direction)
	}
}

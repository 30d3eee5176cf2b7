package service

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/repository"
	"context"
	log "log/slog"
)

type RatingService interface {
	SubmitRating(ctx context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error)
	SyncAggregate(ctx context.Context, recipeID uint64) error
}

type ratingServiceImpl struct {
	recipeRepo repository.RecipeRepo
	ratingRepo repository.RatingRepo
	valueSvc   ValueService
}

func NewRatingService(recipeRepo repository.RecipeRepo, ratingRepo repository.RatingRepo, valueSvc ValueService) RatingService {
	return &ratingServiceImpl{
		recipeRepo: recipeRepo,
		ratingRepo: ratingRepo,
		valueSvc:   valueSvc,
	}
}

// SubmitRating 覆盖该用户之前的评分，成功后失效相关缓存
func (s *ratingServiceImpl) SubmitRating(ctx context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error) {
	if err := ValidateAxes(axes); err != nil {
		return nil, err
	}
	if isEmptyRating(axes) {
		return nil, ErrEmptyRating
	}

	recipe, err := s.recipeRepo.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	rating, err := s.ratingRepo.UpsertRating(ctx, userID, recipeID, axes)
	if err != nil {
		return nil, err
	}

	// 评分已落库，失效失败只记录日志
	if err := s.valueSvc.InvalidateRecipe(ctx, recipeID); err != nil {
		log.ErrorContext(ctx, "invalidate after rating failed", "recipe_id", recipeID, "err", err)
	}
	return rating, nil
}

// SyncAggregate 评分表被其他服务直接修改时，重算累计值并失效缓存
func (s *ratingServiceImpl) SyncAggregate(ctx context.Context, recipeID uint64) error {
	if _, err := s.ratingRepo.RebuildAggregate(ctx, recipeID); err != nil {
		return err
	}
	return s.valueSvc.InvalidateRecipe(ctx, recipeID)
}

func isEmptyRating(axes model.RatingAxes) bool {
	for _, axis := range model.Axes {
		if axes.Get(axis) != nil {
			return false
		}
	}
	return true
}

package repository

import (
	"CraveQuest/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// RecipeRepo 菜谱与交互记录的只读访问
// since 为零值时不限制时间
type RecipeRepo interface {
	GetRecipe(ctx context.Context, id uint64) (*model.Recipe, error)
	GetRecipes(ctx context.Context, ids []uint64) ([]*model.Recipe, error)
	ListInteractionsSince(ctx context.Context, recipeID uint64, since time.Time) ([]*model.Interaction, error)
	ListInteractedRecipeIDs(ctx context.Context, since time.Time) ([]uint64, error)
}

type recipeRepoImpl struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepo {
	return &recipeRepoImpl{db: db}
}

// GetRecipe 不存在或已删除时返回 nil, nil
func (s *recipeRepoImpl) GetRecipe(ctx context.Context, id uint64) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *recipeRepoImpl) GetRecipes(ctx context.Context, ids []uint64) ([]*model.Recipe, error) {
	recipes := make([]*model.Recipe, 0, len(ids))
	if len(ids) == 0 {
		return recipes, nil
	}
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *recipeRepoImpl) ListInteractionsSince(ctx context.Context, recipeID uint64, since time.Time) ([]*model.Interaction, error) {
	interactions := make([]*model.Interaction, 0)
	query := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Order("created_at ASC").Find(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

// ListInteractedRecipeIDs 时间窗口内至少有一次交互、且未删除的菜谱
func (s *recipeRepoImpl) ListInteractedRecipeIDs(ctx context.Context, since time.Time) ([]uint64, error) {
	alive := s.db.Model(&model.Recipe{}).Select("id").Where("is_deleted = ?", false)

	query := s.db.WithContext(ctx).
		Model(&model.Interaction{}).
		Distinct("recipe_id").
		Where("recipe_id IN (?)", alive)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	ids := make([]uint64, 0)
	if err := query.Order("recipe_id ASC").Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

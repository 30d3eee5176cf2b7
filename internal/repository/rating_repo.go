package repository

import (
	"CraveQuest/internal/model"
	"context"
	"errors"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepo interface {
	GetActiveRatings(ctx context.Context, recipeID uint64) ([]*model.Rating, error)
	GetRating(ctx context.Context, userID, recipeID uint64) (*model.Rating, error)
	UpsertRating(ctx context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error)
	GetAggregate(ctx context.Context, recipeID uint64) (*model.RatingAggregate, error)
	GetAggregates(ctx context.Context, recipeIDs []uint64) (map[uint64]*model.RatingAggregate, error)
	RebuildAggregate(ctx context.Context, recipeID uint64) (*model.RatingAggregate, error)
}

type ratingRepoImpl struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepo {
	return &ratingRepoImpl{db: db}
}

const maxTxAttempts = 3

var ratingAxisColumns = []string{"taste", "health", "time_accuracy", "effort", "cost"}

func (s *ratingRepoImpl) GetActiveRatings(ctx context.Context, recipeID uint64) ([]*model.Rating, error) {
	ratings := make([]*model.Rating, 0)
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("id ASC").
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (s *ratingRepoImpl) GetRating(ctx context.Context, userID, recipeID uint64) (*model.Rating, error) {
	return findRating(s.db.WithContext(ctx), userID, recipeID)
}

// UpsertRating 新评分替换旧评分，并在同一事务内按 新值-旧值 原子更新累计表
// 并发写同一菜谱发生死锁时整体重试
func (s *ratingRepoImpl) UpsertRating(ctx context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error) {
	var (
		saved *model.Rating
		err   error
	)
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		saved, err = s.upsertRating(ctx, userID, recipeID, axes)
		if err == nil || !isRetryableTxError(err) {
			break
		}
		log.WarnContext(ctx, "rating upsert conflict, retrying", "recipe_id", recipeID, "attempt", attempt, "err", err)
	}
	return saved, err
}

func (s *ratingRepoImpl) upsertRating(ctx context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error) {
	var saved *model.Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := lockRating(tx, userID, recipeID)
		if err != nil {
			return err
		}

		rating := &model.Rating{UserID: userID, RecipeID: recipeID, RatingAxes: axes}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns(append(ratingAxisColumns, "updated_at")),
		}).Create(rating).Error
		if err != nil {
			return err
		}

		delta := &model.RatingAggregate{RecipeID: recipeID}
		delta.Add(axes, 1)
		if old != nil {
			delta.Add(old.RatingAxes, -1)
		} else {
			delta.RatingCount = 1
		}
		if err = applyAggregateDelta(tx, delta); err != nil {
			return err
		}

		saved, err = findRating(tx, userID, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// GetAggregate 没有任何评分时返回空累计值
func (s *ratingRepoImpl) GetAggregate(ctx context.Context, recipeID uint64) (*model.RatingAggregate, error) {
	var agg model.RatingAggregate
	err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).First(&agg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.RatingAggregate{RecipeID: recipeID}, nil
		}
		return nil, err
	}
	return &agg, nil
}

// GetAggregates 结果中不包含没有评分的菜谱
func (s *ratingRepoImpl) GetAggregates(ctx context.Context, recipeIDs []uint64) (map[uint64]*model.RatingAggregate, error) {
	result := make(map[uint64]*model.RatingAggregate, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}
	aggs := make([]*model.RatingAggregate, 0, len(recipeIDs))
	if err := s.db.WithContext(ctx).Where("recipe_id IN ?", recipeIDs).Find(&aggs).Error; err != nil {
		return nil, err
	}
	for _, agg := range aggs {
		result[agg.RecipeID] = agg
	}
	return result, nil
}

// RebuildAggregate 由评分明细重算累计值，用于外部直接写评分表的情况
func (s *ratingRepoImpl) RebuildAggregate(ctx context.Context, recipeID uint64) (*model.RatingAggregate, error) {
	var agg *model.RatingAggregate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ratings := make([]*model.Rating, 0)
		if err := tx.Where("recipe_id = ?", recipeID).Find(&ratings).Error; err != nil {
			return err
		}
		agg = model.AggregateOf(recipeID, ratings)
		return tx.Save(agg).Error
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// isRetryableTxError 唯一键冲突、死锁、锁等待超时
func isRetryableTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	switch mysqlErr.Number {
	case 1062, 1205, 1213:
		return true
	default:
		return false
	}
}

func findRating(db *gorm.DB, userID, recipeID uint64) (*model.Rating, error) {
	var rating model.Rating
	err := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

// lockRating 记录不存在时 MySQL 加的是间隙锁，同一用户并发首评会有一方死锁回滚，
// 重试后读到对方已写入的记录，评分数不会重复累加
func lockRating(tx *gorm.DB, userID, recipeID uint64) (*model.Rating, error) {
	return findRating(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, recipeID)
}

func applyAggregateDelta(tx *gorm.DB, delta *model.RatingAggregate) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.RatingAggregate{RecipeID: delta.RecipeID}).Error
	if err != nil {
		return err
	}

	return tx.Model(&model.RatingAggregate{}).
		Where("recipe_id = ?", delta.RecipeID).
		Updates(map[string]interface{}{
			"rating_count": gorm.Expr("rating_count + ?", delta.RatingCount),
			"taste_count":  gorm.Expr("taste_count + ?", delta.TasteCount),
			"taste_sum":    gorm.Expr("taste_sum + ?", delta.TasteSum),
			"health_count": gorm.Expr("health_count + ?", delta.HealthCount),
			"health_sum":   gorm.Expr("health_sum + ?", delta.HealthSum),
			"time_count":   gorm.Expr("time_count + ?", delta.TimeCount),
			"time_sum":     gorm.Expr("time_sum + ?", delta.TimeSum),
			"effort_count": gorm.Expr("effort_count + ?", delta.EffortCount),
			"effort_sum":   gorm.Expr("effort_sum + ?", delta.EffortSum),
			"cost_count":   gorm.Expr("cost_count + ?", delta.CostCount),
			"cost_sum":     gorm.Expr("cost_sum + ?", delta.CostSum),
		}).Error
}

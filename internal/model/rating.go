package model

import (
	"time"
)

// RatingLevel 0-6 档评分
type RatingLevel int8

const (
	LevelHate RatingLevel = iota
	LevelDontLike
	LevelMeh
	LevelLike
	LevelLove
	LevelCrave
	LevelLegendary
)

const (
	MinRatingLevel = LevelHate
	MaxRatingLevel = LevelLegendary
)

var ratingLevelNames = [...]string{"Hate", "Don't Like", "Meh", "Like", "Love", "Crave", "Legendary"}

func (l RatingLevel) String() string {
	if l < MinRatingLevel || l > MaxRatingLevel {
		return "Unknown"
	}
	return ratingLevelNames[l]
}

// Axis 评分维度
type Axis string

const (
	AxisTaste  Axis = "taste"
	AxisHealth Axis = "health"
	AxisTime   Axis = "time"
	AxisEffort Axis = "effort"
	AxisCost   Axis = "cost"
)

// Axes 固定顺序，保证遍历与序列化结果稳定
var Axes = []Axis{AxisTaste, AxisHealth, AxisTime, AxisEffort, AxisCost}

// RatingAxes 一次评分的五个维度，nil 表示用户未评价该维度
type RatingAxes struct {
	Taste  *RatingLevel `gorm:"column:taste" json:"taste,omitempty"`
	Health *RatingLevel `gorm:"column:health" json:"health,omitempty"`
	Time   *RatingLevel `gorm:"column:time_accuracy" json:"time,omitempty"`
	Effort *RatingLevel `gorm:"column:effort" json:"effort,omitempty"`
	Cost   *RatingLevel `gorm:"column:cost" json:"cost,omitempty"`
}

// Get 按维度取值
func (a RatingAxes) Get(axis Axis) *RatingLevel {
	switch axis {
	case AxisTaste:
		return a.Taste
	case AxisHealth:
		return a.Health
	case AxisTime:
		return a.Time
	case AxisEffort:
		return a.Effort
	case AxisCost:
		return a.Cost
	default:
		return nil
	}
}

// Rating 用户对菜谱的当前有效评分，同一用户同一菜谱只保留一条
type Rating struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	UserID     uint64 `gorm:"not null;uniqueIndex:uk_user_recipe,priority:1" json:"user_id"`
	RecipeID   uint64 `gorm:"not null;uniqueIndex:uk_user_recipe,priority:2;index:idx_recipe_id" json:"recipe_id"`
	RatingAxes `gorm:"embedded"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Rating) TableName() string {
	return "recipe_ratings"
}

// RatingAggregate 菜谱评分的累计值，只通过原子增量更新
type RatingAggregate struct {
	RecipeID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	RatingCount int64     `gorm:"not null;default:0" json:"rating_count"`
	TasteCount  int64     `gorm:"not null;default:0" json:"taste_count"`
	TasteSum    int64     `gorm:"not null;default:0" json:"taste_sum"`
	HealthCount int64     `gorm:"not null;default:0" json:"health_count"`
	HealthSum   int64     `gorm:"not null;default:0" json:"health_sum"`
	TimeCount   int64     `gorm:"not null;default:0" json:"time_count"`
	TimeSum     int64     `gorm:"not null;default:0" json:"time_sum"`
	EffortCount int64     `gorm:"not null;default:0" json:"effort_count"`
	EffortSum   int64     `gorm:"not null;default:0" json:"effort_sum"`
	CostCount   int64     `gorm:"not null;default:0" json:"cost_count"`
	CostSum     int64     `gorm:"not null;default:0" json:"cost_sum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RatingAggregate) TableName() string {
	return "recipe_rating_aggregates"
}

// AxisTally 单维度的样本数与总和
type AxisTally struct {
	Count int64
	Sum   int64
}

// Tally 按维度返回样本数与总和
func (a *RatingAggregate) Tally(axis Axis) AxisTally {
	switch axis {
	case AxisTaste:
		return AxisTally{Count: a.TasteCount, Sum: a.TasteSum}
	case AxisHealth:
		return AxisTally{Count: a.HealthCount, Sum: a.HealthSum}
	case AxisTime:
		return AxisTally{Count: a.TimeCount, Sum: a.TimeSum}
	case AxisEffort:
		return AxisTally{Count: a.EffortCount, Sum: a.EffortSum}
	case AxisCost:
		return AxisTally{Count: a.CostCount, Sum: a.CostSum}
	default:
		return AxisTally{}
	}
}

// Add 累加一条评分，sign 为 1 表示新增，-1 表示撤销被替换的旧评分
func (a *RatingAggregate) Add(axes RatingAxes, sign int64) {
	add := func(v *RatingLevel, count, sum *int64) {
		if v == nil {
			return
		}
		*count += sign
		*sum += sign * int64(*v)
	}
	add(axes.Taste, &a.TasteCount, &a.TasteSum)
	add(axes.Health, &a.HealthCount, &a.HealthSum)
	add(axes.Time, &a.TimeCount, &a.TimeSum)
	add(axes.Effort, &a.EffortCount, &a.EffortSum)
	add(axes.Cost, &a.CostCount, &a.CostSum)
}

// AggregateOf 根据一组评分构建累计值
func AggregateOf(recipeID uint64, ratings []*Rating) *RatingAggregate {
	agg := &RatingAggregate{RecipeID: recipeID}
	for _, r := range ratings {
		if r == nil {
			continue
		}
		agg.RatingCount++
		agg.Add(r.RatingAxes, 1)
	}
	return agg
}

// Level 构造评分指针的便捷函数
func Level(v int) *RatingLevel {
	l := RatingLevel(v)
	return &l
}

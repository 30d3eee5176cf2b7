package model

import (
	"time"
)

// InteractionType 用户与菜谱的交互类型
type InteractionType string

const (
	InteractionView  InteractionType = "view"
	InteractionSave  InteractionType = "save"
	InteractionCook  InteractionType = "cook"
	InteractionRate  InteractionType = "rate"
	InteractionShare InteractionType = "share"
	InteractionHide  InteractionType = "hide"
)

type Interaction struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	RecipeID  uint64          `gorm:"not null;index:idx_recipe_created,priority:1" json:"recipe_id"`
	UserID    uint64          `gorm:"not null" json:"user_id"`
	Type      InteractionType `gorm:"type:varchar(16);not null" json:"type"`
	CreatedAt time.Time       `gorm:"not null;index:idx_recipe_created,priority:2;index:idx_created_at" json:"created_at"`
}

func (Interaction) TableName() string {
	return "recipe_interactions"
}

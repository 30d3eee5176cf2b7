package model

import (
	"time"
)

// Modification 用户对菜谱做出的改动（替换食材、调整时间等）
type Modification struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	RecipeID         uint64    `gorm:"not null;index:idx_recipe_id" json:"recipe_id"`
	UserID           uint64    `gorm:"not null" json:"user_id"`
	ModificationType string    `gorm:"type:varchar(50);not null" json:"modification_type"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Modification) TableName() string {
	return "recipe_modifications"
}

package model

import (
	"time"
)

type Recipe struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Category    string    `gorm:"type:varchar(64);index:idx_category" json:"category"`
	Cuisine     string    `gorm:"type:varchar(64)" json:"cuisine"`
	Ingredients []string  `gorm:"serializer:json" json:"ingredients"`
	PrepMinutes int       `gorm:"not null;default:0" json:"prep_minutes"`
	CookMinutes int       `gorm:"not null;default:0" json:"cook_minutes"`
	CostCents   int       `gorm:"not null;default:0" json:"cost_cents"`
	Servings    int       `gorm:"not null;default:1" json:"servings"`
	IsDeleted   bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Recipe) TableName() string {
	return "recipes"
}

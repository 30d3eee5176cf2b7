package dto

import "time"

// RatingSubmitDTO 提交评分，未填写的维度表示不评价
type RatingSubmitDTO struct {
	Taste  *int `json:"taste" binding:"omitempty,min=0,max=6"`
	Health *int `json:"health" binding:"omitempty,min=0,max=6"`
	Time   *int `json:"time" binding:"omitempty,min=0,max=6"`
	Effort *int `json:"effort" binding:"omitempty,min=0,max=6"`
	Cost   *int `json:"cost" binding:"omitempty,min=0,max=6"`
}

type RatingDTO struct {
	RecipeID  uint64    `json:"recipeId"`
	UserID    uint64    `json:"userId"`
	Taste     *int      `json:"taste,omitempty"`
	Health    *int      `json:"health,omitempty"`
	Time      *int      `json:"time,omitempty"`
	Effort    *int      `json:"effort,omitempty"`
	Cost      *int      `json:"cost,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

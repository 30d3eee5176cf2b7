package dto

import "time"

type ValueQuery struct {
	Mode string `form:"mode"`
}

// ValueScoreDTO 菜谱价值分
type ValueScoreDTO struct {
	RecipeID    uint64    `json:"recipeId"`
	Mode        string    `json:"mode"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	Provisional bool      `json:"provisional"`
	SampleCount int64     `json:"sampleCount"`
	ComputedAt  time.Time `json:"computedAt"`
	Stale       bool      `json:"stale"`
}

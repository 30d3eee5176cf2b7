package dto

import "time"

// RankingQuery 排行榜查询参数
type RankingQuery struct {
	Period string `form:"period" binding:"required"`
	Type   string `form:"type" binding:"required"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// RankingEntryDTO 排行榜中的一行，delta 形如 NEW / UP(2) / DOWN(1) / STEADY
type RankingEntryDTO struct {
	RecipeID     uint64  `json:"recipeId"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	PreviousRank int     `json:"previousRank,omitempty"`
	Delta        string  `json:"delta"`
}

type PaginationDTO struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// RankingDTO 排行榜分页返回
type RankingDTO struct {
	Recipes    []*RankingEntryDTO `json:"recipes"`
	Pagination PaginationDTO      `json:"pagination"`
	ComputedAt time.Time          `json:"computedAt"`
	Stale      bool               `json:"stale"`
}

// RankingRefreshReq 手动刷新排行榜，keys 形如 today:overall
type RankingRefreshReq struct {
	Keys []string `json:"keys" binding:"required,min=1,max=15,dive,required"`
}

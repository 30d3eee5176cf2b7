package api

import "CraveQuest/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	RankingHandler *handler.RankingHandler
	ValueHandler   *handler.ValueHandler
	TrendHandler   *handler.TrendHandler
	RatingHandler  *handler.RatingHandler
}

package handler

import (
	"CraveQuest/internal/api/dto"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/response"
	"CraveQuest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type TrendHandler struct {
	trendSvc service.TrendService
}

func NewTrendHandler(trendSvc service.TrendService) *TrendHandler {
	return &TrendHandler{
		trendSvc: trendSvc,
	}
}

// GetTrends 获取上升或下降最快的分类、食材、改动类型
func (h *TrendHandler) GetTrends(c *gin.Context) {
	var q dto.TrendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	records, err := h.trendSvc.GetTrends(c.Request.Context(), model.TrendDimension(q.Dimension), model.TrendDirection(q.Direction), q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	res := make([]*dto.TrendRecordDTO, 0, len(records))
	if err := copier.Copy(&res, records); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

package handler

import (
	"CraveQuest/internal/api/dto"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/response"
	"CraveQuest/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type ValueHandler struct {
	valueSvc service.ValueService
}

func NewValueHandler(valueSvc service.ValueService) *ValueHandler {
	return &ValueHandler{
		valueSvc: valueSvc,
	}
}

// GetValue 获取菜谱价值分，mode 缺省为 taste
func (h *ValueHandler) GetValue(c *gin.Context) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recipeID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var q dto.ValueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	mode := model.ScoreMode(q.Mode)
	if mode == "" {
		mode = model.ModeTasteOnly
	}

	score, stale, err := h.valueSvc.GetValueScore(c.Request.Context(), recipeID, mode)
	if err != nil {
		response.Error(c, err)
		return
	}

	res := &dto.ValueScoreDTO{}
	if err := copier.Copy(res, score); err != nil {
		response.Error(c, err)
		return
	}
	res.SampleCount = score.Inputs.SampleCount
	res.Stale = stale
	response.Success(c, res)
}

package handler

import (
	"CraveQuest/internal/api/dto"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/consts"
	"CraveQuest/internal/pkg/response"
	"CraveQuest/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingSvc service.RatingService
}

func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingSvc: ratingSvc,
	}
}

// SubmitRating 提交或覆盖当前用户对菜谱的评分
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recipeID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64(consts.CtxUserID)

	var req dto.RatingSubmitDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrInvalidRating)
		return
	}

	rating, err := h.ratingSvc.SubmitRating(c.Request.Context(), userID, recipeID, toAxes(&req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toRatingDTO(rating))
}

func toAxes(req *dto.RatingSubmitDTO) model.RatingAxes {
	level := func(v *int) *model.RatingLevel {
		if v == nil {
			return nil
		}
		return model.Level(*v)
	}
	return model.RatingAxes{
		Taste:  level(req.Taste),
		Health: level(req.Health),
		Time:   level(req.Time),
		Effort: level(req.Effort),
		Cost:   level(req.Cost),
	}
}

func toRatingDTO(r *model.Rating) *dto.RatingDTO {
	value := func(l *model.RatingLevel) *int {
		if l == nil {
			return nil
		}
		v := int(*l)
		return &v
	}
	return &dto.RatingDTO{
		RecipeID:  r.RecipeID,
		UserID:    r.UserID,
		Taste:     value(r.Taste),
		Health:    value(r.Health),
		Time:      value(r.Time),
		Effort:    value(r.Effort),
		Cost:      value(r.Cost),
		UpdatedAt: r.UpdatedAt,
	}
}

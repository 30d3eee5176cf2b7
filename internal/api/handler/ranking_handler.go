package handler

import (
	"CraveQuest/internal/api/dto"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/response"
	"CraveQuest/internal/service"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type RankingHandler struct {
	rankingSvc service.RankingService
}

func NewRankingHandler(rankingSvc service.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingSvc: rankingSvc,
	}
}

// GetRanking 获取排行榜分页
func (h *RankingHandler) GetRanking(c *gin.Context) {
	var q dto.RankingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	page, err := h.rankingSvc.GetRanking(c.Request.Context(), model.Period(q.Period), model.RankingType(q.Type), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := toRankingDTO(page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// RefreshRankings 立即重算指定排行榜
func (h *RankingHandler) RefreshRankings(c *gin.Context) {
	var req dto.RankingRefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	keys := make([]model.RankingKey, 0, len(req.Keys))
	for _, raw := range req.Keys {
		key, ok := model.ParseRankingKey(raw)
		if !ok {
			response.Error(c, fmt.Errorf("%w: ranking %q", service.ErrParamInvalid, raw))
			return
		}
		keys = append(keys, key)
	}

	var errs []error
	for _, key := range keys {
		if err := h.rankingSvc.RefreshSnapshot(c.Request.Context(), key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// InvalidateRankings 标记全部排行榜过期
func (h *RankingHandler) InvalidateRankings(c *gin.Context) {
	if err := h.rankingSvc.InvalidateRankings(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func toRankingDTO(page *service.RankingPage) (*dto.RankingDTO, error) {
	res := &dto.RankingDTO{
		Recipes: make([]*dto.RankingEntryDTO, 0, len(page.Entries)),
		Pagination: dto.PaginationDTO{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
		},
		ComputedAt: page.ComputedAt,
		Stale:      page.Stale,
	}
	for _, e := range page.Entries {
		entry := &dto.RankingEntryDTO{}
		if err := copier.Copy(entry, e); err != nil {
			return nil, err
		}
		entry.Delta = e.DeltaLabel()
		res.Recipes = append(res.Recipes, entry)
	}
	return res, nil
}

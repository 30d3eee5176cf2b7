package kafka

import (
	"CraveQuest/internal/service"
	"context"
)

// RatingsHandler 评分表的任何变更都重算累计值，覆盖绕过本服务直接写库的情况
type RatingsHandler struct {
	ratingSvc service.RatingService
	dirty     DirtyMarker
}

func NewRatingsHandler(ratingSvc service.RatingService, dirty DirtyMarker) *RatingsHandler {
	return &RatingsHandler{ratingSvc: ratingSvc, dirty: dirty}
}

func (h *RatingsHandler) Handle(ctx context.Context, msg *CanalMessage) error {
	ids := make([]uint64, 0, len(msg.Data))
	seen := make(map[uint64]struct{}, len(msg.Data))
	for _, row := range msg.Data {
		recipeID, err := rowUint64(row, "recipe_id")
		if err != nil {
			return err
		}
		if _, ok := seen[recipeID]; ok {
			continue
		}
		seen[recipeID] = struct{}{}
		ids = append(ids, recipeID)
	}

	for _, id := range ids {
		if err := h.ratingSvc.SyncAggregate(ctx, id); err != nil {
			return err
		}
	}
	return h.dirty.Mark(ctx, ids...)
}

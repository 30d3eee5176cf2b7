package kafka

import (
	"CraveQuest/internal/service"
	"context"
)

// DirtyMarker 记录需要重新计算排行的菜谱
type DirtyMarker interface {
	Mark(ctx context.Context, ids ...uint64) error
}

// InteractionsHandler 处理 recipe_interactions 的新增
type InteractionsHandler struct {
	trendSvc service.TrendService
	dirty    DirtyMarker
}

func NewInteractionsHandler(trendSvc service.TrendService, dirty DirtyMarker) *InteractionsHandler {
	return &InteractionsHandler{trendSvc: trendSvc, dirty: dirty}
}

func (h *InteractionsHandler) Handle(ctx context.Context, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	ids := make([]uint64, 0, len(msg.Data))
	for _, row := range msg.Data {
		recipeID, err := rowUint64(row, "recipe_id")
		if err != nil {
			return err
		}
		at, ok := StrToTime(row["created_at"])
		if !ok {
			at = msg.EventTime()
		}
		if err = h.trendSvc.RecordInteraction(ctx, recipeID, at); err != nil {
			return err
		}
		ids = append(ids, recipeID)
	}
	return h.dirty.Mark(ctx, ids...)
}

package kafka

import (
	"CraveQuest/internal/service"
	"context"
)

// ModificationsHandler 处理 recipe_modifications 的新增
type ModificationsHandler struct {
	trendSvc service.TrendService
	dirty    DirtyMarker
}

func NewModificationsHandler(trendSvc service.TrendService, dirty DirtyMarker) *ModificationsHandler {
	return &ModificationsHandler{trendSvc: trendSvc, dirty: dirty}
}

func (h *ModificationsHandler) Handle(ctx context.Context, msg *CanalMessage) error {
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
		if err = h.trendSvc.RecordModification(ctx, StrToString(row["modification_type"]), at); err != nil {
			return err
		}
		ids = append(ids, recipeID)
	}
	return h.dirty.Mark(ctx, ids...)
}

package kafka

import (
	"CraveQuest/internal/service"
	"context"
	log "log/slog"
)

// RecipesHandler 菜谱被编辑或删除后失效其价值分，并标记排行待刷新
type RecipesHandler struct {
	valueSvc service.ValueService
	dirty    DirtyMarker
}

func NewRecipesHandler(valueSvc service.ValueService, dirty DirtyMarker) *RecipesHandler {
	return &RecipesHandler{valueSvc: valueSvc, dirty: dirty}
}

func (h *RecipesHandler) Handle(ctx context.Context, msg *CanalMessage) error {
	if msg.Type != UPDATE && msg.Type != DELETE {
		return nil
	}

	ids := make([]uint64, 0, len(msg.Data))
	for _, row := range msg.Data {
		recipeID, err := rowUint64(row, "id")
		if err != nil {
			return err
		}
		if err = h.valueSvc.InvalidateRecipe(ctx, recipeID); err != nil {
			return err
		}
		if msg.Type == DELETE || StrToBool(row["is_deleted"]) {
			log.InfoContext(ctx, "recipe removed", "recipe_id", recipeID)
		}
		ids = append(ids, recipeID)
	}
	return h.dirty.Mark(ctx, ids...)
}

package service

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/consts"
	"strconv"
)

func rankingSnapshotKey(key model.RankingKey) string {
	return consts.RankingKeyPrefix + key.String()
}

// rankingPageKey 以完整快照 key 加冒号为前缀，刷新快照时可一并失效所有分页
func rankingPageKey(key model.RankingKey, page, limit int) string {
	return rankingPagePrefix(key) + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

func rankingPagePrefix(key model.RankingKey) string {
	return rankingSnapshotKey(key) + ":"
}

func valueKey(recipeID uint64, mode model.ScoreMode) string {
	return valuePrefix(recipeID) + string(mode)
}

func valuePrefix(recipeID uint64) string {
	return consts.ValueKeyPrefix + strconv.FormatUint(recipeID, 10) + ":"
}

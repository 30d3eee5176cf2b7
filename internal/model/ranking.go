package model

import (
	"strconv"
	"strings"
	"time"
)

// Period 排行榜时间范围
type Period string

const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodYear    Period = "year"
	PeriodAllTime Period = "allTime"
)

var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAllTime}

func (p Period) Valid() bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// RankingType 排行榜类型
type RankingType string

const (
	RankingOverall RankingType = "overall"
	RankingValue   RankingType = "value"
	RankingTaste   RankingType = "taste"
)

var RankingTypes = []RankingType{RankingOverall, RankingValue, RankingTaste}

func (t RankingType) Valid() bool {
	for _, v := range RankingTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RankingKey 一个排行榜快照的标识
type RankingKey struct {
	Period Period      `json:"period"`
	Type   RankingType `json:"type"`
}

func (k RankingKey) String() string {
	return string(k.Period) + ":" + string(k.Type)
}

// DeltaKind 排名变化类型
type DeltaKind string

const (
	DeltaNew    DeltaKind = "NEW"
	DeltaUp     DeltaKind = "UP"
	DeltaDown   DeltaKind = "DOWN"
	DeltaSteady DeltaKind = "STEADY"
)

// RankingEntry 排行榜中的一行
type RankingEntry struct {
	RecipeID     uint64    `json:"recipe_id"`
	Score        float64   `json:"score"`
	Rank         int       `json:"rank"`
	PreviousRank int       `json:"previous_rank,omitempty"`
	Delta        DeltaKind `json:"delta"`
	Movement     int       `json:"movement,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeltaLabel 形如 NEW / UP(2) / DOWN(3) / STEADY
func (e RankingEntry) DeltaLabel() string {
	switch e.Delta {
	case DeltaUp, DeltaDown:
		return string(e.Delta) + "(" + strconv.Itoa(e.Movement) + ")"
	default:
		return string(e.Delta)
	}
}

// RankingSnapshot 某个 (period, type) 的完整排行榜，发布后不可变
type RankingSnapshot struct {
	Key        RankingKey      `json:"key"`
	ComputedAt time.Time       `json:"computed_at"`
	Entries    []*RankingEntry `json:"entries"`
}

// RankOf 返回菜谱在快照中的名次，不存在时返回 0
func (s *RankingSnapshot) RankOf(recipeID uint64) int {
	if s == nil {
		return 0
	}
	for _, e := range s.Entries {
		if e.RecipeID == recipeID {
			return e.Rank
		}
	}
	return 0
}

// ParseRankingKey 解析形如 today:overall 的字符串
func ParseRankingKey(s string) (RankingKey, bool) {
	period, rankingType, ok := strings.Cut(s, ":")
	if !ok {
		return RankingKey{}, false
	}
	key := RankingKey{Period: Period(period), Type: RankingType(rankingType)}
	return key, key.Period.Valid() && key.Type.Valid()
}

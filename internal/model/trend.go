package model

import (
	"time"
)

// TrendDimension 趋势统计维度
type TrendDimension string

const (
	TrendCategory     TrendDimension = "category"
	TrendIngredient   TrendDimension = "ingredient"
	TrendModification TrendDimension = "modification"
)

var TrendDimensions = []TrendDimension{TrendCategory, TrendIngredient, TrendModification}

func (d TrendDimension) Valid() bool {
	for _, v := range TrendDimensions {
		if v == d {
			return true
		}
	}
	return false
}

// TrendRecord 某个 key 在当前窗口与上一窗口的计数对比
type TrendRecord struct {
	Dimension    TrendDimension `json:"dimension"`
	Key          string         `json:"key"`
	WindowStart  time.Time      `json:"window_start"`
	WindowEnd    time.Time      `json:"window_end"`
	CountCurrent int64          `json:"count_current"`
	CountPrior   int64          `json:"count_prior"`
	GrowthRate   float64        `json:"growth_rate"`
}

// TrendEvent 进入趋势统计的一次事件
type TrendEvent struct {
	Dimension TrendDimension
	Key       string
	At        time.Time
}

// TrendDirection 上升或下降
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
)

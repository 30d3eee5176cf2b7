package dto

import "time"

// TrendQuery 趋势查询参数，direction 缺省为 rising
type TrendQuery struct {
	Dimension string `form:"dimension" binding:"required,oneof=category ingredient modification"`
	Direction string `form:"direction" binding:"omitempty,oneof=rising falling"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

type TrendRecordDTO struct {
	Dimension    string    `json:"dimension"`
	Key          string    `json:"key"`
	WindowStart  time.Time `json:"windowStart"`
	WindowEnd    time.Time `json:"windowEnd"`
	CountCurrent int64     `json:"countCurrent"`
	CountPrior   int64     `json:"countPrior"`
	GrowthRate   float64   `json:"growthRate"`
}

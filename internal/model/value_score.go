package model

import (
	"errors"
	"time"
)

// ScoreMode 价值分计算模式
type ScoreMode string

const (
	ModeTasteOnly   ScoreMode = "taste"
	ModeSimpleValue ScoreMode = "simple"
)

// ValueInputs 计算价值分时使用的输入摘要
type ValueInputs struct {
	SampleCount  int64            `json:"sample_count"`
	AxisAverages map[Axis]float64 `json:"axis_averages"`
}

// ValueScore 菜谱价值分，派生数据，用户不可直接修改
type ValueScore struct {
	RecipeID    uint64      `json:"recipe_id"`
	Mode        ScoreMode   `json:"mode"`
	Score       float64     `json:"score"`
	Confidence  float64     `json:"confidence"`
	Provisional bool        `json:"provisional"`
	ComputedAt  time.Time   `json:"computed_at"`
	Inputs      ValueInputs `json:"inputs"`
}

// ErrInsufficientData 样本数未达到最小阈值，分数仅供参考
var ErrInsufficientData = errors.New("样本不足")

// Check 供需要以错误形式感知临时分数的调用方使用
func (v *ValueScore) Check() error {
	if v.Provisional {
		return ErrInsufficientData
	}
	return nil
}

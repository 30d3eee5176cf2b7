package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"fmt"
	"math"
	"time"
)

const maxLevel = float64(model.MaxRatingLevel)

// ValueCalculator 将评分累计值换算为 0-100 的价值分，无副作用
type ValueCalculator struct {
	cfg config.ValueConfig
	now func() time.Time
}

func NewValueCalculator(cfg config.ValueConfig) (*ValueCalculator, error) {
	if math.Abs(cfg.Weights.Sum()-1) > 1e-6 {
		return nil, fmt.Errorf("value weights must sum to 1, got %.4f", cfg.Weights.Sum())
	}
	if cfg.MinSamples < 1 || cfg.SaturationSamples < cfg.MinSamples {
		return nil, fmt.Errorf("invalid sample thresholds min=%d saturation=%d", cfg.MinSamples, cfg.SaturationSamples)
	}
	return &ValueCalculator{cfg: cfg, now: time.Now}, nil
}

// ComputeValue 由评分明细计算价值分
func (c *ValueCalculator) ComputeValue(recipeID uint64, mode model.ScoreMode, ratings []*model.Rating) (*model.ValueScore, error) {
	for _, r := range ratings {
		if r == nil {
			continue
		}
		if err := ValidateAxes(r.RatingAxes); err != nil {
			return nil, err
		}
	}
	return c.ComputeFromAggregate(recipeID, mode, model.AggregateOf(recipeID, ratings))
}

// ComputeFromAggregate 由累计值计算价值分
func (c *ValueCalculator) ComputeFromAggregate(recipeID uint64, mode model.ScoreMode, agg *model.RatingAggregate) (*model.ValueScore, error) {
	if agg == nil {
		agg = &model.RatingAggregate{RecipeID: recipeID}
	}

	averages := make(map[model.Axis]float64, len(model.Axes))
	for _, axis := range model.Axes {
		t := agg.Tally(axis)
		if t.Count > 0 {
			averages[axis] = float64(t.Sum) / float64(t.Count)
		}
	}

	var score float64
	var samples int64
	switch mode {
	case model.ModeTasteOnly:
		samples = agg.Tally(model.AxisTaste).Count
		if avg, ok := averages[model.AxisTaste]; ok {
			score = normalize(model.AxisTaste, avg)
		}
	case model.ModeSimpleValue:
		samples = agg.RatingCount
		score = c.weighted(averages)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	confidence := c.confidence(samples)
	return &model.ValueScore{
		RecipeID:    recipeID,
		Mode:        mode,
		Score:       round4(clamp(score, 0, 100)),
		Confidence:  round4(confidence),
		Provisional: samples < c.cfg.MinSamples,
		ComputedAt:  c.now(),
		Inputs: model.ValueInputs{
			SampleCount:  samples,
			AxisAverages: averages,
		},
	}, nil
}

// weighted 没有样本的维度不参与计算，其余权重重新归一
func (c *ValueCalculator) weighted(averages map[model.Axis]float64) float64 {
	var total, weightSum float64
	for _, axis := range model.Axes {
		avg, ok := averages[axis]
		w := c.weight(axis)
		if !ok || w <= 0 {
			continue
		}
		total += w * normalize(axis, avg)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

func (c *ValueCalculator) weight(axis model.Axis) float64 {
	w := c.cfg.Weights
	switch axis {
	case model.AxisTaste:
		return w.Taste
	case model.AxisHealth:
		return w.Health
	case model.AxisTime:
		return w.Time
	case model.AxisEffort:
		return w.Effort
	case model.AxisCost:
		return w.Cost
	default:
		return 0
	}
}

// confidence 低于最小样本数时为 0，之后线性增长到饱和样本数
func (c *ValueCalculator) confidence(samples int64) float64 {
	if samples < c.cfg.MinSamples {
		return 0
	}
	return math.Min(1, float64(samples)/float64(c.cfg.SaturationSamples))
}

// normalize 时间、难度、花费越低越好，取反
func normalize(axis model.Axis, avg float64) float64 {
	switch axis {
	case model.AxisTime, model.AxisEffort, model.AxisCost:
		return (maxLevel - avg) / maxLevel * 100
	default:
		return avg / maxLevel * 100
	}
}

// ValidateAxes 每个已评价维度必须在 0-6 之间
func ValidateAxes(axes model.RatingAxes) error {
	for _, axis := range model.Axes {
		v := axes.Get(axis)
		if v == nil {
			continue
		}
		if *v < model.MinRatingLevel || *v > model.MaxRatingLevel {
			return fmt.Errorf("%w: %s=%d", ErrInvalidRating, axis, *v)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

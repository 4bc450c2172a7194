package analyzer

import (
	"math"

	"bitget-ma-scanner/pkg/types"
)

// ApplyFilters 信号过滤管道
// 各过滤条件按固定顺序求与：方向 → 成交量 → 价格位置，
// 顺序固定保证过滤器之间的相互作用是确定、可测的；
// 过滤只删除记录，不改变剩余记录的相对顺序
func ApplyFilters(records []types.SignalRecord, opts types.FilterOptions) []types.SignalRecord {
	out := make([]types.SignalRecord, 0, len(records))
	for _, r := range records {
		if !matchDirection(r, opts) {
			continue
		}
		if !matchVolume(r, opts) {
			continue
		}
		if !matchPosition(r, opts) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchDirection(r types.SignalRecord, opts types.FilterOptions) bool {
	switch opts.Direction {
	case types.FilterDirectionBullish:
		return r.Direction == types.DirectionBullish
	case types.FilterDirectionBearish:
		return r.Direction == types.DirectionBearish
	default:
		return r.Direction == types.DirectionBullish || r.Direction == types.DirectionBearish
	}
}

func matchVolume(r types.SignalRecord, opts types.FilterOptions) bool {
	return r.Volume >= opts.MinVolume
}

// matchPosition 价格位置过滤，金叉与死叉分别配置
// within-pct 在位置条件之上额外要求收盘价对相应均线的偏离不超过阈值
func matchPosition(r types.SignalRecord, opts types.FilterOptions) bool {
	switch r.Direction {
	case types.DirectionBullish:
		return matchBullPosition(r, opts.BullPosition, opts.PositionPct)
	case types.DirectionBearish:
		return matchBearPosition(r, opts.BearPosition, opts.PositionPct)
	default:
		return false
	}
}

func matchBullPosition(r types.SignalRecord, position string, pct float64) bool {
	switch position {
	case types.PositionAboveFast:
		return r.PriceAboveFast
	case types.PositionAboveSlow:
		return r.PriceAboveSlow
	case types.PositionAboveBoth:
		return r.PriceAboveFast && r.PriceAboveSlow
	case types.PositionAboveFastWithinPct:
		return r.PriceAboveFast && math.Abs(r.PriceDeviationFastPct) <= pct
	case types.PositionAboveSlowWithinPct:
		return r.PriceAboveSlow && math.Abs(r.PriceDeviationSlowPct) <= pct
	default:
		return true
	}
}

func matchBearPosition(r types.SignalRecord, position string, pct float64) bool {
	switch position {
	case types.PositionBelowFast:
		return !r.PriceAboveFast
	case types.PositionBelowSlow:
		return !r.PriceAboveSlow
	case types.PositionBelowBoth:
		return !r.PriceAboveFast && !r.PriceAboveSlow
	case types.PositionBelowFastWithinPct:
		return !r.PriceAboveFast && math.Abs(r.PriceDeviationFastPct) <= pct
	case types.PositionBelowSlowWithinPct:
		return !r.PriceAboveSlow && math.Abs(r.PriceDeviationSlowPct) <= pct
	default:
		return true
	}
}

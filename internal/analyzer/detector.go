package analyzer

import (
	"math"

	"bitget-ma-scanner/pkg/types"
)

// minWarmupBars 慢线周期之外额外要求的暖机K线数
// 序列长度不足 max(fast,slow)+minWarmupBars 时均线意义不大，直接判定数据不足
const minWarmupBars = 10

// SMA 简单移动平均（滚动求和实现）
// 输出与输入等长，前 period-1 个位置为NaN
func SMA(x []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= period {
			sum -= x[i-period]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// pctOf 百分比偏差，分母接近0（退化数据）时返回0而不是Inf/NaN
func pctOf(num, den float64) float64 {
	if math.Abs(den) < 1e-12 {
		return 0
	}
	return num / den * 100
}

// Detect 检测最近 lookbackBars 根K线内的均线交叉
//
// 序列不足时返回数据不足（方向none、Insufficient=true，不是错误）。
// 交叉判定：
//   - 金叉于i: fast[i-1] <= slow[i-1] 且 fast[i] > slow[i]
//   - 死叉于i: fast[i-1] >= slow[i-1] 且 fast[i] < slow[i]
//
// 从最近一根K线向前扫描，最先命中的交叉生效（nearest wins）：
// 窗口内即便两个方向都出现过，也只报告时间上最近的那一个，
// 这是确定的行为约定，不依赖遍历顺序。
// 参与比较的每个位置都要求两条均线均已有定义，NaN暖机值不会泄漏到结果里。
func Detect(series types.CandleSeries, fastPeriod, slowPeriod, lookbackBars int) types.DetectionResult {
	res := types.DetectionResult{Direction: types.DirectionNone}

	maxPeriod := fastPeriod
	if slowPeriod > maxPeriod {
		maxPeriod = slowPeriod
	}
	if len(series) < maxPeriod+minWarmupBars {
		res.Insufficient = true
		return res
	}

	closes := series.Closes()
	fast := SMA(closes, fastPeriod)
	slow := SMA(closes, slowPeriod)

	last := len(closes) - 1

	for offset := 0; offset < lookbackBars; offset++ {
		i := last - offset
		// i-1 位置两条均线都必须有定义
		if i-1 < maxPeriod-1 {
			break
		}
		if fast[i-1] <= slow[i-1] && fast[i] > slow[i] {
			bars := offset
			res.Direction = types.DirectionBullish
			res.BarsSinceCross = &bars
			break
		}
		if fast[i-1] >= slow[i-1] && fast[i] < slow[i] {
			bars := offset
			res.Direction = types.DirectionBearish
			res.BarsSinceCross = &bars
			break
		}
	}

	// 辅助指标：无论是否命中交叉都计算
	fastLast := fast[last]
	slowLast := slow[last]
	closeLast := closes[last]

	res.FastMA = fastLast
	res.SlowMA = slowLast
	res.CurrentPrice = closeLast
	res.MADistancePct = math.Abs(pctOf(fastLast-slowLast, slowLast))
	res.PriceAboveFast = closeLast > fastLast
	res.PriceAboveSlow = closeLast > slowLast
	res.PriceDeviationFastPct = pctOf(closeLast-fastLast, fastLast)
	res.PriceDeviationSlowPct = pctOf(closeLast-slowLast, slowLast)

	return res
}

package analyzer

import (
	"sort"
	"time"

	"bitget-ma-scanner/pkg/types"
)

// BuildResult 组装对外的扫描结果
// 统计方向计数并按配置的排序键稳定排序，排序键由调用方选择
func BuildResult(params types.ScanParams, filtered []types.SignalRecord, stats types.ScanStats, scanTime time.Time) types.ScanResult {
	for _, r := range filtered {
		switch r.Direction {
		case types.DirectionBullish:
			stats.BullishCount++
		case types.DirectionBearish:
			stats.BearishCount++
		}
	}
	stats.ResultsCount = len(filtered)

	sortRecords(filtered, params.SortBy)

	return types.ScanResult{
		Granularity: params.Granularity,
		FastPeriod:  params.FastPeriod,
		SlowPeriod:  params.SlowPeriod,
		ScanTime:    scanTime,
		Results:     filtered,
		Stats:       stats,
	}
}

// sortRecords 稳定排序，相等元素保持输入顺序
func sortRecords(records []types.SignalRecord, sortBy string) {
	switch sortBy {
	case types.SortByChange24h:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ChangePct24h > records[j].ChangePct24h
		})
	case types.SortByMADistance:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].MADistancePct > records[j].MADistancePct
		})
	case types.SortByVolume:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Volume > records[j].Volume
		})
	default:
		// 默认：距交叉K线数升序，越新的信号越靠前
		sort.SliceStable(records, func(i, j int) bool {
			return barsOf(records[i]) < barsOf(records[j])
		})
	}
}

func barsOf(r types.SignalRecord) int {
	if r.BarsSinceCross == nil {
		return int(^uint(0) >> 1)
	}
	return *r.BarsSinceCross
}

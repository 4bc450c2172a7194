package types

import "time"

// Direction 交叉信号方向
type Direction string

const (
	DirectionNone    Direction = "none"    // 无信号/数据不足
	DirectionBullish Direction = "bullish" // 金叉：快线上穿慢线
	DirectionBearish Direction = "bearish" // 死叉：快线下穿慢线
)

// 方向过滤选项
const (
	FilterDirectionBoth    = "both"
	FilterDirectionBullish = "bullish-only"
	FilterDirectionBearish = "bearish-only"
)

// 价格位置过滤选项（金叉用 above-*，死叉用镜像的 below-*）
const (
	PositionNone               = "none"
	PositionAboveFast          = "above-fast"
	PositionAboveSlow          = "above-slow"
	PositionAboveBoth          = "above-both"
	PositionAboveFastWithinPct = "above-fast-within-pct"
	PositionAboveSlowWithinPct = "above-slow-within-pct"
	PositionBelowFast          = "below-fast"
	PositionBelowSlow          = "below-slow"
	PositionBelowBoth          = "below-both"
	PositionBelowFastWithinPct = "below-fast-within-pct"
	PositionBelowSlowWithinPct = "below-slow-within-pct"
)

// 结果排序选项
const (
	SortByBarsSinceCross = "bars-since-cross" // 距交叉K线数升序（默认）
	SortByChange24h      = "change24h"        // 24小时涨跌幅降序
	SortByMADistance     = "ma-distance"      // 均线距离降序
	SortByVolume         = "volume"           // 成交量降序
)

// DetectionResult 单个交易对的交叉检测结果，一次扫描计算一次，之后不再修改
type DetectionResult struct {
	Symbol                string    `json:"symbol"`
	Direction             Direction `json:"direction"`
	BarsSinceCross        *int      `json:"bars_since_cross"`         // 距交叉发生的K线数，无交叉为nil
	FastMA                float64   `json:"fast_ma"`                  // 快线当前值
	SlowMA                float64   `json:"slow_ma"`                  // 慢线当前值
	CurrentPrice          float64   `json:"current_price"`            // 最新收盘价
	MADistancePct         float64   `json:"ma_distance_pct"`          // |快线-慢线|/慢线 ×100
	PriceAboveFast        bool      `json:"price_above_fast"`         // 收盘价是否高于快线
	PriceAboveSlow        bool      `json:"price_above_slow"`         // 收盘价是否高于慢线
	PriceDeviationFastPct float64   `json:"price_deviation_fast_pct"` // 收盘价偏离快线的百分比（带符号）
	PriceDeviationSlowPct float64   `json:"price_deviation_slow_pct"` // 收盘价偏离慢线的百分比（带符号）
	Insufficient          bool      `json:"insufficient"`             // K线数量不足，不参与过滤
}

// SignalRecord 通过过滤管道的信号，附带ticker字段，交给报告层
type SignalRecord struct {
	DetectionResult
	ChangePct24h float64 `json:"change_pct_24h"` // 24小时涨跌幅
	Volume       float64 `json:"volume"`         // 24小时成交量
}

// ScanStats 一次扫描的统计信息
type ScanStats struct {
	ScanTimeSeconds      float64 `json:"scan_time_seconds"`     // 扫描耗时
	TotalInstruments     int     `json:"total_instruments"`     // 扫描的交易对总数
	ProcessedInstruments int     `json:"processed_instruments"` // 成功拿到K线的交易对数
	InsufficientData     int     `json:"insufficient_data"`     // 数据不足被跳过的交易对数
	ResultsCount         int     `json:"results_count"`         // 通过过滤的信号数
	BullishCount         int     `json:"bullish_count"`         // 金叉信号数
	BearishCount         int     `json:"bearish_count"`         // 死叉信号数
}

// FilterOptions 信号过滤配置，固定按 方向→成交量→价格位置 的顺序求与
type FilterOptions struct {
	Direction    string  `mapstructure:"direction" validate:"oneof=both bullish-only bearish-only"`
	MinVolume    float64 `mapstructure:"min_volume" validate:"gte=0"`
	BullPosition string  `mapstructure:"bull_position" validate:"oneof=none above-fast above-slow above-both above-fast-within-pct above-slow-within-pct"`
	BearPosition string  `mapstructure:"bear_position" validate:"oneof=none below-fast below-slow below-both below-fast-within-pct below-slow-within-pct"`
	PositionPct  float64 `mapstructure:"position_pct" validate:"gte=0"` // within-pct 的阈值，默认3%
}

// ScanParams 一次扫描的全部参数，发起任何网络请求前先整体校验
type ScanParams struct {
	Granularity  string        `validate:"required,oneof=1m 5m 15m 30m 1H 4H 1D"`
	FastPeriod   int           `validate:"required,gt=0"`
	SlowPeriod   int           `validate:"required,gt=0"`
	LookbackBars int           `validate:"required,gte=1,lte=10"`
	Workers      int           `validate:"gte=1"`
	CandleLimit  int           `validate:"gte=1"`
	FetchTimeout time.Duration `validate:"gt=0"`
	Filter       FilterOptions
	SortBy       string `validate:"oneof=bars-since-cross change24h ma-distance volume"`
}

// ScanResult 扫描的对外输出：过滤排序后的信号 + 统计，标注所用参数
type ScanResult struct {
	Granularity string         `json:"granularity"`
	FastPeriod  int            `json:"fast_period"`
	SlowPeriod  int            `json:"slow_period"`
	ScanTime    time.Time      `json:"scan_time"`
	Results     []SignalRecord `json:"results"`
	Stats       ScanStats      `json:"stats"`
}

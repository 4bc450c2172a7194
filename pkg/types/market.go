package types

import (
	"sort"
	"time"
)

// Candle 单根K线（OHLCV）
type Candle struct {
	Ts          time.Time `json:"ts"`           // K线起始时间
	Open        float64   `json:"open"`         // 开盘价
	High        float64   `json:"high"`         // 最高价
	Low         float64   `json:"low"`          // 最低价
	Close       float64   `json:"close"`        // 收盘价
	VolumeBase  float64   `json:"volume_base"`  // 基础币成交量
	VolumeQuote float64   `json:"volume_quote"` // 计价币成交量
}

// CandleSeries 单个交易对、单个粒度的K线序列
// 规范化之后按时间严格升序且时间戳唯一；每次抓取新建，检测完即丢弃
type CandleSeries []Candle

// Normalize 按时间升序排序并去掉重复时间戳（保留先出现的一根）
func (cs CandleSeries) Normalize() CandleSeries {
	if len(cs) <= 1 {
		return cs
	}

	sorted := make(CandleSeries, len(cs))
	copy(sorted, cs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ts.Before(sorted[j].Ts)
	})

	out := sorted[:1]
	for _, c := range sorted[1:] {
		if c.Ts.Equal(out[len(out)-1].Ts) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Closes 收盘价序列，供均线计算使用
func (cs CandleSeries) Closes() []float64 {
	closes := make([]float64, len(cs))
	for i, c := range cs {
		closes[i] = c.Close
	}
	return closes
}

// TickerSnapshot 24小时行情快照
// 每次扫描只拉取一次；某个交易对缺失时各字段一律取0，不影响扫描
type TickerSnapshot struct {
	ChangePct24h float64 `json:"change_pct_24h"` // 24小时涨跌幅（百分比）
	VolumeBase   float64 `json:"volume_base"`    // 24小时基础币成交量
	LastPrice    float64 `json:"last_price"`     // 最新成交价
}

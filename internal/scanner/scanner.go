package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bitget-ma-scanner/internal/analyzer"
	"bitget-ma-scanner/internal/scheduler"
	"bitget-ma-scanner/pkg/types"
)

// MarketAPI 扫描所需的行情接口，由 fetcher.MarketClient 实现
type MarketAPI interface {
	Instruments(ctx context.Context) ([]string, error)
	Tickers(ctx context.Context) map[string]types.TickerSnapshot
	Candles(ctx context.Context, symbol, granularity string, limit int) types.CandleSeries
}

// Scanner 完整扫描流程：
// 参数校验 → 交易对列表 → ticker快照 → 并发抓取K线 → 交叉检测 → 过滤 → 汇总
// 检测与过滤是纯函数、逐序列顺序执行，只有抓取阶段并发
type Scanner struct {
	client     MarketAPI
	validate   *validator.Validate
	onProgress func(done, total int)
}

// New 创建扫描器，client需已绑定探测通过的端点
func New(client MarketAPI) *Scanner {
	return &Scanner{
		client:   client,
		validate: validator.New(),
	}
}

// SetProgressFunc 设置抓取进度回调（可选）
func (s *Scanner) SetProgressFunc(fn func(done, total int)) {
	s.onProgress = fn
}

// normalizeParams 空值填默认，校验之前执行
func normalizeParams(p types.ScanParams) types.ScanParams {
	if p.Workers <= 0 {
		p.Workers = 10
	}
	if p.CandleLimit <= 0 {
		p.CandleLimit = 500
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = 10 * time.Second
	}
	if p.SortBy == "" {
		p.SortBy = types.SortByBarsSinceCross
	}
	if p.Filter.Direction == "" {
		p.Filter.Direction = types.FilterDirectionBoth
	}
	if p.Filter.BullPosition == "" {
		p.Filter.BullPosition = types.PositionNone
	}
	if p.Filter.BearPosition == "" {
		p.Filter.BearPosition = types.PositionNone
	}
	if p.Filter.PositionPct == 0 {
		p.Filter.PositionPct = 3.0
	}
	return p
}

// validateParams 参数整体校验，不通过时返回 ValidationError
func (s *Scanner) validateParams(p types.ScanParams) error {
	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &types.ValidationError{Field: verrs[0].Field(), Reason: "不满足约束 " + verrs[0].Tag()}
		}
		return &types.ValidationError{Field: "params", Reason: err.Error()}
	}
	// 快慢周期的大小关系没法用tag表达，单独校验
	if p.FastPeriod >= p.SlowPeriod {
		return &types.ValidationError{Field: "FastPeriod", Reason: "快线周期必须小于慢线周期"}
	}
	return nil
}

// RunScan 执行一次完整扫描
// symbols为空时自动拉取全部交易对；交易对列表失败或无可用端点会中止扫描，
// 其余失败（ticker、单个交易对的K线）一律降级处理，绝不因单个交易对失败中止整批
func (s *Scanner) RunScan(ctx context.Context, params types.ScanParams, symbols []string) (*types.ScanResult, error) {
	params = normalizeParams(params)
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	start := time.Now()
	zap.L().Info("🔍 开始MA交叉扫描",
		zap.String("granularity", params.Granularity),
		zap.Int("fast", params.FastPeriod),
		zap.Int("slow", params.SlowPeriod),
		zap.Int("lookback", params.LookbackBars))

	// 交易对列表失败是系统性失败，直接上抛
	if len(symbols) == 0 {
		var err error
		symbols, err = s.client.Instruments(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(symbols) == 0 {
		return nil, &types.APIError{Msg: "合约列表为空"}
	}

	// ticker失败降级为空map，下游用零值
	tickers := s.client.Tickers(ctx)

	sched := scheduler.NewCandleScheduler(s.client, params.Workers, params.FetchTimeout)
	if s.onProgress != nil {
		sched.SetProgressFunc(s.onProgress)
	}
	candleMap := sched.FetchAll(ctx, symbols, params.Granularity, params.CandleLimit)

	// 逐序列检测，按输入顺序遍历保证结果确定
	records := make([]types.SignalRecord, 0, len(symbols))
	processed := 0
	insufficient := 0
	for _, symbol := range symbols {
		series := candleMap[symbol]
		if len(series) > 0 {
			processed++
		}

		detection := analyzer.Detect(series, params.FastPeriod, params.SlowPeriod, params.LookbackBars)
		detection.Symbol = symbol

		if detection.Insufficient {
			insufficient++
			continue
		}
		if detection.Direction == types.DirectionNone {
			continue
		}

		ticker := tickers[symbol] // 缺失时为零值快照
		records = append(records, types.SignalRecord{
			DetectionResult: detection,
			ChangePct24h:    ticker.ChangePct24h,
			Volume:          ticker.VolumeBase,
		})
	}

	filtered := analyzer.ApplyFilters(records, params.Filter)

	stats := types.ScanStats{
		ScanTimeSeconds:      time.Since(start).Seconds(),
		TotalInstruments:     len(symbols),
		ProcessedInstruments: processed,
		InsufficientData:     insufficient,
	}
	result := analyzer.BuildResult(params, filtered, stats, start)

	zap.L().Info("✅ 扫描完成",
		zap.Float64("seconds", result.Stats.ScanTimeSeconds),
		zap.Int("total", result.Stats.TotalInstruments),
		zap.Int("signals", result.Stats.ResultsCount),
		zap.Int("insufficient", result.Stats.InsufficientData))

	return &result, nil
}

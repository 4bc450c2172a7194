package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bitget-ma-scanner/pkg/types"
)

// CandleFetcher K线抓取接口，由行情客户端实现
// 失败时返回空序列而不是错误，调度器不做任何重试
type CandleFetcher interface {
	Candles(ctx context.Context, symbol, granularity string, limit int) types.CandleSeries
}

// CandleScheduler 并发K线抓取调度器
// 固定数量的worker消费任务通道，同时在途请求数不超过workers；
// 每个交易对只抓一次，结果以交易对为key写入一次，完成顺序不影响下游
type CandleScheduler struct {
	fetcher      CandleFetcher
	workers      int
	fetchTimeout time.Duration
	completed    int64 // 已完成数，单调递增
	onProgress   func(done, total int)
}

// NewCandleScheduler 创建调度器，workers为并发上限，fetchTimeout为单个交易对的抓取超时
func NewCandleScheduler(fetcher CandleFetcher, workers int, fetchTimeout time.Duration) *CandleScheduler {
	if workers <= 0 {
		workers = 10
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &CandleScheduler{
		fetcher:      fetcher,
		workers:      workers,
		fetchTimeout: fetchTimeout,
	}
}

// SetProgressFunc 设置进度回调（可选，仅用于展示）
func (s *CandleScheduler) SetProgressFunc(fn func(done, total int)) {
	s.onProgress = fn
}

// Completed 返回已完成的抓取数
func (s *CandleScheduler) Completed() int {
	return int(atomic.LoadInt64(&s.completed))
}

// FetchAll 并发抓取所有交易对的K线
// 返回的map对每个交易对恰好有一个条目；单个抓取失败只会产生空序列，
// 永远不会中止整批任务
func (s *CandleScheduler) FetchAll(ctx context.Context, symbols []string, granularity string, limit int) map[string]types.CandleSeries {
	total := len(symbols)
	atomic.StoreInt64(&s.completed, 0)

	zap.L().Info("🚀 开始并发抓取K线",
		zap.Int("symbols", total),
		zap.Int("workers", s.workers),
		zap.String("granularity", granularity))

	jobs := make(chan string, total)
	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)

	result := make(map[string]types.CandleSeries, total)
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
				series := s.fetcher.Candles(fetchCtx, symbol, granularity, limit)
				cancel()

				mu.Lock()
				result[symbol] = series
				mu.Unlock()

				done := atomic.AddInt64(&s.completed, 1)
				if s.onProgress != nil {
					s.onProgress(int(done), total)
				}
			}
		}()
	}
	wg.Wait()

	fetched := 0
	for _, series := range result {
		if len(series) > 0 {
			fetched++
		}
	}
	zap.L().Info("✅ K线抓取完成", zap.Int("total", total), zap.Int("with_data", fetched))

	return result
}

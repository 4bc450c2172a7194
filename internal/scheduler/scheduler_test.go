package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitget-ma-scanner/pkg/types"
)

// fakeFetcher 可配置失败交易对的假抓取器，统计并发度
type fakeFetcher struct {
	mu         sync.Mutex
	calls      map[string]int
	failing    map[string]bool
	delay      time.Duration
	inFlight   int64
	maxInUse   int64
	lastCtxErr error
}

func newFakeFetcher(failing map[string]bool, delay time.Duration) *fakeFetcher {
	return &fakeFetcher{
		calls:   make(map[string]int),
		failing: failing,
		delay:   delay,
	}
}

func (f *fakeFetcher) Candles(ctx context.Context, symbol, granularity string, limit int) types.CandleSeries {
	cur := atomic.AddInt64(&f.inFlight, 1)
	for {
		prev := atomic.LoadInt64(&f.maxInUse)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxInUse, prev, cur) {
			break
		}
	}
	defer atomic.AddInt64(&f.inFlight, -1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls[symbol]++
	f.lastCtxErr = ctx.Err()
	failed := f.failing[symbol]
	f.mu.Unlock()

	if failed {
		// 抓取失败的约定是空序列，不是错误
		return types.CandleSeries{}
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make(types.CandleSeries, limit)
	for i := range series {
		series[i] = types.Candle{Ts: base.Add(time.Duration(i) * time.Hour), Close: 100}
	}
	return series
}

func symbolList(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("COIN%dUSDT", i)
	}
	return out
}

func TestFetchAll_OneEntryPerSymbol(t *testing.T) {
	symbols := symbolList(50)
	failing := map[string]bool{"COIN3USDT": true, "COIN17USDT": true, "COIN42USDT": true}
	fetcher := newFakeFetcher(failing, 0)

	s := NewCandleScheduler(fetcher, 10, time.Second)
	result := s.FetchAll(context.Background(), symbols, "1H", 30)

	// 每个交易对恰好一个条目，失败的为空序列
	require.Len(t, result, 50)
	for _, symbol := range symbols {
		series, ok := result[symbol]
		require.True(t, ok, "缺少 %s 的条目", symbol)
		if failing[symbol] {
			assert.Empty(t, series)
		} else {
			assert.Len(t, series, 30)
		}
	}

	// 每个交易对只抓一次
	for symbol, n := range fetcher.calls {
		assert.Equal(t, 1, n, "%s 被抓取了%d次", symbol, n)
	}
	assert.Equal(t, 50, s.Completed())
}

func TestFetchAll_RespectsWorkerLimit(t *testing.T) {
	fetcher := newFakeFetcher(nil, 20*time.Millisecond)

	s := NewCandleScheduler(fetcher, 4, time.Second)
	result := s.FetchAll(context.Background(), symbolList(20), "1H", 5)

	require.Len(t, result, 20)
	assert.LessOrEqual(t, atomic.LoadInt64(&fetcher.maxInUse), int64(4))
	// 有并发确实发生
	assert.Greater(t, atomic.LoadInt64(&fetcher.maxInUse), int64(1))
}

func TestFetchAll_ProgressMonotonic(t *testing.T) {
	fetcher := newFakeFetcher(nil, 0)
	s := NewCandleScheduler(fetcher, 5, time.Second)

	var mu sync.Mutex
	var seen []int
	s.SetProgressFunc(func(done, total int) {
		mu.Lock()
		seen = append(seen, done)
		assert.Equal(t, 25, total)
		mu.Unlock()
	})

	s.FetchAll(context.Background(), symbolList(25), "1H", 5)

	require.Len(t, seen, 25)
	// done取值为1..25各出现一次（回调顺序不保证）
	counts := make(map[int]int)
	for _, d := range seen {
		counts[d]++
	}
	for d := 1; d <= 25; d++ {
		assert.Equal(t, 1, counts[d], "done=%d", d)
	}
}

func TestFetchAll_EmptySymbols(t *testing.T) {
	fetcher := newFakeFetcher(nil, 0)
	s := NewCandleScheduler(fetcher, 10, time.Second)

	result := s.FetchAll(context.Background(), nil, "1H", 5)
	assert.Empty(t, result)
	assert.Equal(t, 0, s.Completed())
}

func TestFetchAll_PerFetchContext(t *testing.T) {
	fetcher := newFakeFetcher(nil, 0)
	s := NewCandleScheduler(fetcher, 2, time.Second)

	s.FetchAll(context.Background(), symbolList(3), "1H", 5)

	// 每次抓取拿到的context在调用时尚未超时
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.NoError(t, fetcher.lastCtxErr)
}

func TestNewCandleScheduler_Defaults(t *testing.T) {
	s := NewCandleScheduler(newFakeFetcher(nil, 0), 0, 0)
	assert.Equal(t, 10, s.workers)
	assert.Equal(t, 10*time.Second, s.fetchTimeout)
}

package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitget-ma-scanner/pkg/types"
)

func newTestClient(handler http.HandlerFunc) (*MarketClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewMarketClient(server.URL, "usdt-futures", types.NetworkConfig{})
	return client, server
}

func envelope(data string) string {
	return fmt.Sprintf(`{"code":"00000","msg":"success","data":%s}`, data)
}

func TestInstruments(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/mix/market/contracts", r.URL.Path)
		assert.Equal(t, "usdt-futures", r.URL.Query().Get("productType"))
		fmt.Fprint(w, envelope(`[{"symbol":"BTCUSDT"},{"symbol":"ETHUSDT"},{"symbol":""}]`))
	})
	defer server.Close()

	symbols, err := client.Instruments(context.Background())
	require.NoError(t, err)
	// 空symbol被跳过
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func TestInstruments_APIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"40001","msg":"参数错误","data":null}`)
	})
	defer server.Close()

	_, err := client.Instruments(context.Background())
	require.Error(t, err)
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "40001", apiErr.Code)
}

func TestInstruments_HTTPError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.Instruments(context.Background())
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestTickers_FieldProbing(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/mix/market/tickers", r.URL.Path)
		// 三个条目覆盖不同的字段名组合：首选字段、备选字段、全部缺失
		fmt.Fprint(w, envelope(`[
			{"symbol":"BTCUSDT","change24h":"0.0512","baseVolume":"12000.5","close":"65000.1"},
			{"symbol":"ETHUSDT","chgUtc":"-0.021","baseVol":3000.25,"lastPr":"3200"},
			{"symbol":"DOGEUSDT"}
		]`))
	})
	defer server.Close()

	tickers := client.Tickers(context.Background())
	require.Len(t, tickers, 3)

	// 涨跌幅从小数换算成百分比
	btc := tickers["BTCUSDT"]
	assert.InDelta(t, 5.12, btc.ChangePct24h, 1e-9)
	assert.InDelta(t, 12000.5, btc.VolumeBase, 1e-9)
	assert.InDelta(t, 65000.1, btc.LastPrice, 1e-9)

	// 备选字段名同样命中，字符串和数字都接受
	eth := tickers["ETHUSDT"]
	assert.InDelta(t, -2.1, eth.ChangePct24h, 1e-9)
	assert.InDelta(t, 3000.25, eth.VolumeBase, 1e-9)
	assert.InDelta(t, 3200.0, eth.LastPrice, 1e-9)

	// 字段全缺失时各取0
	doge := tickers["DOGEUSDT"]
	assert.Zero(t, doge.ChangePct24h)
	assert.Zero(t, doge.VolumeBase)
	assert.Zero(t, doge.LastPrice)
}

func TestTickers_NeverFails(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	tickers := client.Tickers(context.Background())
	assert.NotNil(t, tickers)
	assert.Empty(t, tickers)
}

func TestCandles(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/mix/market/candles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1H", q.Get("granularity"))
		assert.Equal(t, "3", q.Get("limit"))
		// 行倒序返回且含畸形行，解析后应升序且跳过坏行
		fmt.Fprint(w, envelope(`[
			["1717203600000","101","102","100","101.5","500","50750"],
			["1717200000000","100","101","99","100.5","400","40200"],
			["bad-ts","1","1","1","1","1","1"],
			["1717196400000","99","100"]
		]`))
	})
	defer server.Close()

	series := client.Candles(context.Background(), "BTCUSDT", "1H", 3)
	require.Len(t, series, 2)
	assert.True(t, series[0].Ts.Before(series[1].Ts))
	assert.InDelta(t, 100.5, series[0].Close, 1e-9)
	assert.InDelta(t, 101.5, series[1].Close, 1e-9)
	assert.InDelta(t, 400.0, series[0].VolumeBase, 1e-9)
	assert.InDelta(t, 40200.0, series[0].VolumeQuote, 1e-9)
}

func TestCandles_FailureGivesEmptySeries(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"HTTP错误", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"业务码错误", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":"40309","msg":"symbol不存在","data":null}`)
		}},
		{"数据格式错误", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, envelope(`{"not":"an array"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(tt.handler)
			defer server.Close()

			series := client.Candles(context.Background(), "XUSDT", "1H", 10)
			assert.Empty(t, series)
		})
	}
}

func TestProbeField(t *testing.T) {
	item := map[string]any{
		"chgUtc": "0.03",
		"vol24h": 123.0,
	}
	// change24h缺失时落到chgUtc
	assert.InDelta(t, 3.0, probeField(item, changeProbes), 1e-9)
	assert.InDelta(t, 123.0, probeField(item, volumeProbes), 1e-9)
	assert.Zero(t, probeField(item, priceProbes))
	// 非法值视同缺失
	assert.Zero(t, probeField(map[string]any{"change24h": "abc"}, changeProbes))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{2.5, 2.5, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "in=%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12)
		}
	}
}

func TestToInt64(t *testing.T) {
	got, ok := toInt64("1717200000000")
	require.True(t, ok)
	assert.Equal(t, int64(1717200000000), got)

	got, ok = toInt64(float64(123))
	require.True(t, ok)
	assert.Equal(t, int64(123), got)

	_, ok = toInt64("12.5")
	assert.False(t, ok)
}

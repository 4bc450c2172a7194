package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"bitget-ma-scanner/pkg/types"
)

// codeOK Bitget接口的成功业务码
const codeOK = "00000"

// MarketClient Bitget合约行情客户端
// 只发网络请求，调用之间不保留任何本地状态
type MarketClient struct {
	base        string
	productType string
	httpClient  *http.Client
}

// NewMarketClient 创建行情客户端，base为探测通过的端点
func NewMarketClient(base, productType string, networkCfg types.NetworkConfig) *MarketClient {
	timeout := networkCfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}

	// 如果配置了代理，则使用代理
	if networkCfg.Proxy != "" {
		proxyURL, err := url.Parse(networkCfg.Proxy)
		if err == nil {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
			zap.L().Info("✅ 已配置HTTP代理", zap.String("proxy", networkCfg.Proxy))
		} else {
			zap.L().Warn("⚠️ 代理地址格式错误", zap.Error(err))
		}
	}

	return &MarketClient{
		base:        base,
		productType: productType,
		httpClient:  httpClient,
	}
}

// apiResponse Bitget接口统一响应包装
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// getData 发送GET请求并剥掉响应包装，HTTP非200或业务码非成功均视为APIError
func (c *MarketClient) getData(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	u, err := url.Parse(c.base + path)
	if err != nil {
		return nil, &types.APIError{Endpoint: c.base + path, Msg: err.Error()}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("productType", c.productType)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &types.APIError{Endpoint: u.String(), Msg: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.APIError{Endpoint: u.String(), Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.APIError{Endpoint: u.String(), Msg: fmt.Sprintf("HTTP状态码 %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.APIError{Endpoint: u.String(), Msg: err.Error()}
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &types.APIError{Endpoint: u.String(), Msg: err.Error()}
	}
	if apiResp.Code != codeOK {
		return nil, &types.APIError{Endpoint: u.String(), Code: apiResp.Code, Msg: apiResp.Msg}
	}

	return apiResp.Data, nil
}

// Instruments 获取全部USDT永续合约交易对
// 列表拿不到整个扫描没法继续，所以这里的错误直接上抛
func (c *MarketClient) Instruments(ctx context.Context) ([]string, error) {
	raw, err := c.getData(ctx, "/api/v2/mix/market/contracts", nil)
	if err != nil {
		return nil, err
	}

	var contracts []struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(raw, &contracts); err != nil {
		return nil, &types.APIError{Endpoint: c.base, Msg: fmt.Sprintf("合约列表格式错误: %v", err)}
	}

	symbols := make([]string, 0, len(contracts))
	for _, ct := range contracts {
		if ct.Symbol == "" {
			continue
		}
		symbols = append(symbols, ct.Symbol)
	}

	zap.L().Info("✅ 获取到USDT永续合约交易对", zap.Int("count", len(symbols)))
	return symbols, nil
}

// fieldProbe ticker字段名在不同API版本之间不一致，
// 按优先级探测候选字段名，命中第一个存在的，全部未命中取0
type fieldProbe struct {
	name  string
	scale float64 // 数值缩放，比如涨跌幅从小数转百分比
}

var (
	changeProbes = []fieldProbe{{"change24h", 100}, {"chgUtc", 100}, {"changeUtc24h", 100}}
	volumeProbes = []fieldProbe{{"baseVolume", 1}, {"baseVol", 1}, {"vol24h", 1}}
	priceProbes  = []fieldProbe{{"close", 1}, {"last", 1}, {"lastPr", 1}}
)

func probeField(item map[string]any, probes []fieldProbe) float64 {
	for _, p := range probes {
		v, ok := item[p.name]
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f * p.scale
		}
	}
	return 0
}

// toFloat 接口里的数值有时是字符串有时是数字，两种都接受
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Tickers 批量获取24小时行情快照
// 永远不让调用方失败：任何传输或解析错误都返回空map并记录日志
func (c *MarketClient) Tickers(ctx context.Context) map[string]types.TickerSnapshot {
	raw, err := c.getData(ctx, "/api/v2/mix/market/tickers", nil)
	if err != nil {
		zap.L().Error("❌ 获取ticker数据失败", zap.Error(err))
		return map[string]types.TickerSnapshot{}
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		zap.L().Error("❌ ticker数据格式错误", zap.Error(err))
		return map[string]types.TickerSnapshot{}
	}

	tickers := make(map[string]types.TickerSnapshot, len(items))
	for _, item := range items {
		symbol, _ := item["symbol"].(string)
		if symbol == "" {
			continue
		}
		tickers[symbol] = types.TickerSnapshot{
			ChangePct24h: probeField(item, changeProbes),
			VolumeBase:   probeField(item, volumeProbes),
			LastPrice:    probeField(item, priceProbes),
		}
	}

	zap.L().Info("✅ 获取到ticker数据", zap.Int("count", len(tickers)))
	return tickers
}

// Candles 获取单个交易对的K线序列（升序、时间戳去重）
// 任何失败（HTTP错误、业务码错误、数据格式错误）都返回空序列而不是错误，
// 下游把空序列当作数据不足处理，单个交易对失败不会影响整批扫描
func (c *MarketClient) Candles(ctx context.Context, symbol, granularity string, limit int) types.CandleSeries {
	raw, err := c.getData(ctx, "/api/v2/mix/market/candles", map[string]string{
		"symbol":      symbol,
		"granularity": granularity,
		"limit":       strconv.Itoa(limit),
	})
	if err != nil {
		zap.L().Warn("⚠️ K线获取失败", zap.String("symbol", symbol), zap.Error(err))
		return types.CandleSeries{}
	}

	// 行格式: [ts, open, high, low, close, volBase, volQuote]，数值多为字符串
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		zap.L().Warn("⚠️ K线数据格式错误", zap.String("symbol", symbol), zap.Error(err))
		return types.CandleSeries{}
	}

	series := make(types.CandleSeries, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		ms, ok := toInt64(row[0])
		if !ok {
			continue
		}
		open, ok1 := toFloat(row[1])
		high, ok2 := toFloat(row[2])
		low, ok3 := toFloat(row[3])
		closePx, ok4 := toFloat(row[4])
		volBase, ok5 := toFloat(row[5])
		volQuote, ok6 := toFloat(row[6])
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
			continue
		}
		series = append(series, types.Candle{
			Ts:          time.UnixMilli(ms).UTC(),
			Open:        open,
			High:        high,
			Low:         low,
			Close:       closePx,
			VolumeBase:  volBase,
			VolumeQuote: volQuote,
		})
	}

	return series.Normalize()
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

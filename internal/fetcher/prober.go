package fetcher

import (
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"bitget-ma-scanner/pkg/types"
)

// Prober 端点探测器
// 批量抓取开始之前确认端点可达且返回合法响应，整个扫描只跑一次
type Prober struct {
	productType string
	retries     int
	retryDelay  time.Duration
	httpClient  *http.Client
}

// NewProber 创建探测器，retries为每个端点的尝试次数
func NewProber(productType string, retries int, networkCfg types.NetworkConfig) *Prober {
	if retries <= 0 {
		retries = 3
	}

	// 探测请求要快速失败，不复用整体超时
	httpClient := &http.Client{Timeout: 5 * time.Second}
	if networkCfg.Proxy != "" {
		if proxyURL, err := url.Parse(networkCfg.Proxy); err == nil {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Prober{
		productType: productType,
		retries:     retries,
		retryDelay:  time.Second,
		httpClient:  httpClient,
	}
}

// Probe 用一根K线的最小代价请求探测端点
// 传输成功、HTTP 200且业务码成功三者同时满足才算可用
func (p *Prober) Probe(endpoint string) bool {
	u, err := url.Parse(endpoint + "/api/v2/mix/market/candles")
	if err != nil {
		return false
	}
	q := u.Query()
	q.Set("symbol", "BTCUSDT")
	q.Set("granularity", "1H")
	q.Set("limit", "1")
	q.Set("productType", p.productType)
	u.RawQuery = q.Encode()

	resp, err := p.httpClient.Get(u.String())
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return false
	}
	return apiResp.Code == codeOK
}

// SelectEndpoint 依次探测候选端点，每个端点最多retries次，间隔1秒
// 全部失败返回 ErrNoEndpointAvailable，扫描在发出任何抓取请求前中止
func (p *Prober) SelectEndpoint(candidates []string) (string, error) {
	for _, ep := range candidates {
		for attempt := 1; attempt <= p.retries; attempt++ {
			if p.Probe(ep) {
				zap.L().Info("✅ 端点探测成功", zap.String("endpoint", ep), zap.Int("attempt", attempt))
				return ep, nil
			}
			zap.L().Warn("⚠️ 端点探测失败",
				zap.String("endpoint", ep),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.retries))
			if attempt < p.retries {
				time.Sleep(p.retryDelay)
			}
		}
	}
	return "", types.ErrNoEndpointAvailable
}

package fetcher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitget-ma-scanner/pkg/types"
)

func newTestProber() *Prober {
	p := NewProber("usdt-futures", 2, types.NetworkConfig{})
	p.retryDelay = 0 // 测试不等待
	return p
}

func candleProbeHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/mix/market/candles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1", q.Get("limit"))
		fmt.Fprint(w, envelope(`[["1717200000000","100","101","99","100.5","400","40200"]]`))
	}
}

func TestProbe_Success(t *testing.T) {
	server := httptest.NewServer(candleProbeHandler(t))
	defer server.Close()

	assert.True(t, newTestProber().Probe(server.URL))
}

func TestProbe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"HTTP非200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"业务码非成功", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":"40001","msg":"错误","data":null}`)
		}},
		{"响应不是JSON", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>gateway error</html>")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			assert.False(t, newTestProber().Probe(server.URL))
		})
	}
}

func TestSelectEndpoint_FallsBackToNext(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(candleProbeHandler(t))
	defer good.Close()

	endpoint, err := newTestProber().SelectEndpoint([]string{bad.URL, good.URL})
	require.NoError(t, err)
	assert.Equal(t, good.URL, endpoint)
}

func TestSelectEndpoint_RetriesBeforeGivingUp(t *testing.T) {
	var calls int64
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 第一次失败，第二次成功
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		candleProbeHandler(t)(w, r)
	}))
	defer flaky.Close()

	endpoint, err := newTestProber().SelectEndpoint([]string{flaky.URL})
	require.NoError(t, err)
	assert.Equal(t, flaky.URL, endpoint)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestSelectEndpoint_AllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	_, err := newTestProber().SelectEndpoint([]string{bad.URL, "http://127.0.0.1:1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoEndpointAvailable)
}

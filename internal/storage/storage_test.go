package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitget-ma-scanner/pkg/types"
)

func newMemoryManager() *AlertStateManager {
	// URL为空走纯内存模式
	return NewAlertStateManager(types.RedisConfig{})
}

func TestShouldAlert_FirstTime(t *testing.T) {
	sm := newMemoryManager()
	assert.True(t, sm.ShouldAlert("BTCUSDT", types.DirectionBullish, time.Hour))
}

func TestShouldAlert_CooldownSuppresses(t *testing.T) {
	sm := newMemoryManager()
	sm.MarkAlerted("BTCUSDT", types.DirectionBullish, time.Hour)

	assert.False(t, sm.ShouldAlert("BTCUSDT", types.DirectionBullish, time.Hour))
	// 不同方向、不同交易对互不影响
	assert.True(t, sm.ShouldAlert("BTCUSDT", types.DirectionBearish, time.Hour))
	assert.True(t, sm.ShouldAlert("ETHUSDT", types.DirectionBullish, time.Hour))
}

func TestShouldAlert_CooldownExpires(t *testing.T) {
	sm := newMemoryManager()
	key := alertKey("BTCUSDT", types.DirectionBullish)

	// 手工放一个早于冷却期的时间戳
	sm.mutex.Lock()
	sm.lastAlert[key] = time.Now().Add(-2 * time.Hour)
	sm.mutex.Unlock()

	assert.True(t, sm.ShouldAlert("BTCUSDT", types.DirectionBullish, time.Hour))
}

func TestShouldAlert_ZeroCooldownAlwaysAlerts(t *testing.T) {
	sm := newMemoryManager()
	sm.MarkAlerted("BTCUSDT", types.DirectionBullish, 0)
	assert.True(t, sm.ShouldAlert("BTCUSDT", types.DirectionBullish, 0))
}

func TestMarkAlerted_CleansExpiredEntries(t *testing.T) {
	sm := newMemoryManager()
	cooldown := time.Hour

	stale := alertKey("OLDUSDT", types.DirectionBearish)
	sm.mutex.Lock()
	sm.lastAlert[stale] = time.Now().Add(-3 * cooldown)
	sm.mutex.Unlock()

	sm.MarkAlerted("BTCUSDT", types.DirectionBullish, cooldown)

	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	_, ok := sm.lastAlert[stale]
	assert.False(t, ok, "超过2倍冷却期的条目应被清理")
	require.Len(t, sm.lastAlert, 1)
}

func TestAlertKey(t *testing.T) {
	assert.Equal(t, "macross:alert:BTCUSDT:bullish", alertKey("BTCUSDT", types.DirectionBullish))
}

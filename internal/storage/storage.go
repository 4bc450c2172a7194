package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"bitget-ma-scanner/pkg/types"
)

// AlertStateManager 通知去重状态管理器
// 记录每个 交易对+方向 最近一次推送的时间，静默期内的重复信号不再推送。
// 配置了Redis时状态落在Redis（带TTL），进程重启后去重依然有效；
// 未配置或连接失败时退化为纯内存模式
type AlertStateManager struct {
	lastAlert   map[string]time.Time
	mutex       sync.RWMutex
	redisClient *redis.Client
	useRedis    bool
}

// NewAlertStateManager 创建状态管理器，redis连接失败时自动降级
func NewAlertStateManager(redisConfig types.RedisConfig) *AlertStateManager {
	sm := &AlertStateManager{
		lastAlert: make(map[string]time.Time),
	}

	if redisConfig.URL != "" {
		sm.redisClient = redis.NewClient(&redis.Options{
			Addr:     redisConfig.URL,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := sm.redisClient.Ping(ctx).Result(); err != nil {
			zap.L().Warn("⚠️ Redis连接失败，使用纯内存模式", zap.Error(err))
			sm.useRedis = false
		} else {
			zap.L().Info("✅ Redis连接成功")
			sm.useRedis = true
		}
	} else {
		zap.L().Info("🔧 未配置Redis，使用纯内存模式")
	}

	return sm
}

func alertKey(symbol string, direction types.Direction) string {
	return fmt.Sprintf("macross:alert:%s:%s", symbol, direction)
}

// ShouldAlert 该信号是否需要推送
// 同一交易对同方向在cooldown内只推送一次
func (sm *AlertStateManager) ShouldAlert(symbol string, direction types.Direction, cooldown time.Duration) bool {
	if cooldown <= 0 {
		return true
	}

	key := alertKey(symbol, direction)

	if sm.useRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		exists, err := sm.redisClient.Exists(ctx, key).Result()
		if err == nil {
			return exists == 0
		}
		// Redis出错时落回内存判断
		zap.L().Warn("⚠️ Redis查询失败，使用内存状态", zap.Error(err))
	}

	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	last, ok := sm.lastAlert[key]
	if !ok {
		return true
	}
	return time.Since(last) > cooldown
}

// MarkAlerted 记录一次推送
func (sm *AlertStateManager) MarkAlerted(symbol string, direction types.Direction, cooldown time.Duration) {
	key := alertKey(symbol, direction)
	now := time.Now()

	sm.mutex.Lock()
	sm.lastAlert[key] = now

	// 顺手清掉过期条目，内存模式下不无限增长
	cutoff := now.Add(-2 * cooldown)
	for k, t := range sm.lastAlert {
		if t.Before(cutoff) {
			delete(sm.lastAlert, k)
		}
	}
	sm.mutex.Unlock()

	if sm.useRedis {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := sm.redisClient.Set(ctx, key, now.Unix(), cooldown).Err(); err != nil {
				zap.L().Warn("⚠️ Redis写入失败", zap.String("key", key), zap.Error(err))
			}
		}()
	}
}

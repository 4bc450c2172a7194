package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"bitget-ma-scanner/pkg/types"
)

// Load 加载配置
// 优先读取 configs/config.local.yaml，其次 configs/config.yaml，
// 两者都不存在时使用默认值 + 环境变量
func Load() (*types.Config, error) {
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置默认值
	setDefaults()

	// 读取环境变量
	viper.AutomaticEnv()

	// 优先尝试读取本地配置文件
	viper.SetConfigName("config.local")
	if err := viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, err
			}
		}
	}

	var config types.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file_path", "logs")
	viper.SetDefault("log.max_size", 200)
	viper.SetDefault("log.max_age", 30)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.compress", false)

	viper.SetDefault("network.proxy", "")
	viper.SetDefault("network.timeout", 30*time.Second)

	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("dingtalk.webhook_url", "")
	viper.SetDefault("dingtalk.secret", "")
	viper.SetDefault("pushplus.user_token", "")
	viper.SetDefault("pushplus.to", "")

	viper.SetDefault("api.endpoints", []string{"https://api.bitget.com"})
	viper.SetDefault("api.product_type", "usdt-futures")
	viper.SetDefault("api.candle_limit", 500)
	viper.SetDefault("api.probe_retries", 3)

	viper.SetDefault("scan.granularity", "1H")
	viper.SetDefault("scan.fast_period", 20)
	viper.SetDefault("scan.slow_period", 200)
	viper.SetDefault("scan.lookback_bars", 3)
	viper.SetDefault("scan.workers", 10)
	viper.SetDefault("scan.fetch_timeout", 10*time.Second)

	viper.SetDefault("filter.direction", types.FilterDirectionBoth)
	viper.SetDefault("filter.min_volume", 0.0)
	viper.SetDefault("filter.bull_position", types.PositionNone)
	viper.SetDefault("filter.bear_position", types.PositionNone)
	viper.SetDefault("filter.position_pct", 3.0)

	viper.SetDefault("report.sort_by", types.SortByBarsSinceCross)
	viper.SetDefault("report.csv_dir", "")
	viper.SetDefault("report.top_n", 20)

	viper.SetDefault("watch", false)
	viper.SetDefault("fetch.interval", time.Hour)
	viper.SetDefault("alert.cooldown", 4*time.Hour)
}
